// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/llmchat/internal/config"
	"github.com/jeranaias/llmchat/internal/logging"
	"github.com/jeranaias/llmchat/internal/ollama"
	"github.com/jeranaias/llmchat/internal/storage"
	"github.com/jeranaias/llmchat/internal/surface"
	"github.com/jeranaias/llmchat/internal/worker"
)

// =============================================================================
// TURN LAUNCHER
// =============================================================================

// launcher starts one worker per turn against the current endpoint. The
// endpoint can change between turns; a running turn keeps the client it
// started with.
type launcher struct {
	ctx context.Context
	log *zap.Logger

	mu     sync.Mutex
	client *ollama.Client
}

func newLauncher(ctx context.Context, endpoint string, log *zap.Logger) *launcher {
	return &launcher{ctx: ctx, log: log, client: ollama.NewClient(endpoint)}
}

// Start satisfies surface.Starter.
func (l *launcher) Start(modelName, message string) <-chan worker.Result {
	l.mu.Lock()
	client := l.client
	l.mu.Unlock()
	return worker.New(client, modelName, message, l.log).Start(l.ctx)
}

// SetEndpoint switches the endpoint for later turns.
func (l *launcher) SetEndpoint(endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if endpoint == l.client.BaseURL() {
		return
	}
	l.log.Info("endpoint changed", zap.String("from", l.client.BaseURL()), zap.String("to", endpoint))
	l.client = ollama.NewClient(endpoint)
}

// Client returns the current client.
func (l *launcher) Client() *ollama.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app bundles what a chat session needs: logger, launcher, surface and the
// optional history store.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	launcher *launcher
	surface  *surface.Surface
	store    *storage.HistoryStore

	closers []func() error
}

// newApp wires a session from cfg. With logToFile the logger writes to the
// configured log file instead of stderr.
func newApp(ctx context.Context, cfg *config.Config, logToFile bool) (*app, error) {
	a := &app{cfg: cfg}

	if logToFile {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		log, closeLog, err := logging.NewFileLogger(path, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		a.log = log
		a.closers = append(a.closers, closeLog)
	} else {
		a.log = logging.NewConsoleLogger(cfg.Log.Level)
		a.closers = append(a.closers, func() error { _ = a.log.Sync(); return nil })
	}

	opts := []surface.Option{surface.WithLogger(a.log)}
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			a.Close()
			return nil, err
		}
		store, err := storage.Open(path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
		opts = append(opts, surface.WithRecorder(store))
	}

	a.launcher = newLauncher(ctx, cfg.Endpoint, a.log)
	a.surface = surface.New(cfg.Model, a.launcher.Start, opts...)

	a.log.Debug("session ready",
		zap.String("model", cfg.Model),
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("history", cfg.History.Enabled))
	return a, nil
}

// applyConfig switches model and endpoint for later turns.
func (a *app) applyConfig(cfg *config.Config) {
	a.surface.SetModel(cfg.Model)
	a.launcher.SetEndpoint(cfg.Endpoint)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
