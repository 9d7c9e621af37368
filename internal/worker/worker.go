// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker runs one conversation turn against the inference server.
//
// A Worker posts a single user message, accumulates the streamed reply and
// reports exactly one terminal Result. Start runs it on its own goroutine
// and delivers the Result on a channel with room for exactly one value, so
// the worker never blocks on a slow reader.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/ollama"
)

// ErrorPrefix starts the text of every failed turn.
const ErrorPrefix = "Error: "

// Chatter is the part of the ollama client a worker needs.
type Chatter interface {
	ChatStream(ctx context.Context, req ollama.ChatRequest, callback ollama.StreamCallback) error
}

// Result is the single terminal event of a turn.
type Result struct {
	TurnID string
	Model  string

	// Text is the accumulated reply, or ErrorPrefix followed by the error.
	Text string

	// Done is the completion flag. Failed turns are complete too.
	Done bool

	// Err is a *ollama.TransportError, *ollama.DecodeError, or another
	// failure converted to the same presentation.
	Err error

	// Final carries the server's closing chunk (token counts, timing).
	Final ollama.StreamChunk

	// Conversation holds the user turn and, on success, the assistant turn.
	Conversation []model.Turn
	Elapsed      time.Duration
}

// Worker owns one outgoing request and its accumulation buffer.
type Worker struct {
	id      string
	client  Chatter
	model   string
	message string
	log     *zap.Logger

	conv *model.Conversation
}

// New creates a worker for one user message. The model identifier is fixed
// for the lifetime of the worker.
func New(client Chatter, modelName, message string, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Worker{
		id:      id,
		client:  client,
		model:   modelName,
		message: message,
		log:     log.With(zap.String("turn_id", id), zap.String("model", modelName)),
		conv:    model.NewConversation(),
	}
}

// ID returns the turn identifier.
func (w *Worker) ID() string {
	return w.id
}

// Start runs the turn on a new goroutine. The returned channel receives
// exactly one Result and is never closed.
func (w *Worker) Start(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("turn panicked", zap.Any("panic", r))
				out <- w.failure(fmt.Errorf("unexpected failure: %v", r), ollama.StreamChunk{}, start)
			}
		}()
		out <- w.Run(ctx)
	}()
	return out
}

// Run performs the turn synchronously and returns its terminal Result.
func (w *Worker) Run(ctx context.Context) Result {
	start := time.Now()
	w.conv.Append(model.NewUserTurn(w.message))

	req := ollama.ChatRequest{
		Model:    w.model,
		Messages: w.conv.Messages(),
	}

	w.log.Debug("turn started", zap.Int("message_bytes", len(w.message)))

	var (
		buf    strings.Builder
		chunks int
		final  ollama.StreamChunk
	)
	err := w.client.ChatStream(ctx, req, func(chunk ollama.StreamChunk) {
		chunks++
		buf.WriteString(chunk.Content)
		if chunk.Done {
			final = chunk
		}
	})
	if err != nil {
		w.log.Warn("turn failed",
			zap.Error(err),
			zap.Int("chunks", chunks),
			zap.Int("status", ollama.StatusCode(err)),
		)
		return w.failure(err, final, start)
	}

	text := buf.String()
	w.conv.Append(model.NewAssistantTurn(text))

	elapsed := time.Since(start)
	w.log.Info("turn complete",
		zap.Int("chunks", chunks),
		zap.Int("bytes", len(text)),
		zap.Int("completion_tokens", final.CompletionTokens),
		zap.Duration("elapsed", elapsed),
	)

	return Result{
		TurnID:       w.id,
		Model:        w.model,
		Text:         text,
		Done:         true,
		Final:        final,
		Conversation: w.conv.Turns(),
		Elapsed:      elapsed,
	}
}

// failure converts any error into the terminal error presentation. The
// partially accumulated text is discarded.
func (w *Worker) failure(err error, final ollama.StreamChunk, start time.Time) Result {
	return Result{
		TurnID:       w.id,
		Model:        w.model,
		Text:         ErrorPrefix + err.Error(),
		Done:         true,
		Err:          err,
		Final:        final,
		Conversation: w.conv.Turns(),
		Elapsed:      time.Since(start),
	}
}
