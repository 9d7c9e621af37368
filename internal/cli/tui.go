// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/llmchat/internal/config"
	"github.com/jeranaias/llmchat/internal/ui/chat"
	"github.com/jeranaias/llmchat/internal/ui/styles"
)

// runTUI runs the full-screen chat until the user quits. Logs go to the
// log file since the UI owns the terminal.
func runTUI(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts.cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	view := chat.New(a.surface, styles.NewTheme(), chat.Options{
		Title:    "llmchat",
		Markdown: opts.cfg.UI.Markdown,
		WordWrap: opts.cfg.UI.WordWrap,
	})
	program := tea.NewProgram(view, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	stopWatch := watchConfig(opts, a, func(cfg *config.Config) {
		program.Send(chat.ConfigReloadedMsg{Model: cfg.Model, Markdown: cfg.UI.Markdown})
	})
	defer stopWatch()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}

// watchConfig reloads the config file on change and applies it to later
// turns. Flag overrides still win over the reloaded file. A missing file or
// watcher failure only disables reloading.
func watchConfig(opts *rootOptions, a *app, notify func(*config.Config)) func() {
	path, err := opts.resolvedConfigPath()
	if err != nil {
		a.log.Debug("config reload disabled", zap.Error(err))
		return func() {}
	}

	w, err := config.NewWatcher(path, config.DefaultDebounce, a.log, func(cfg *config.Config) {
		opts.overrides().Apply(cfg)
		a.applyConfig(cfg)
		if notify != nil {
			notify(cfg)
		}
	})
	if err != nil {
		a.log.Warn("config reload disabled", zap.Error(err))
		return func() {}
	}
	if err := w.Watch(); err != nil {
		w.Close()
		a.log.Debug("config reload disabled", zap.Error(err))
		return func() {}
	}
	return func() { _ = w.Close() }
}
