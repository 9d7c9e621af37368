// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package surface holds the chat surface state shared by the terminal UI
// and the plain line-mode REPL: the transcript, the duplicate-submission
// guard, and the busy indicator.
//
// A Surface never renders anything itself. Submit hands back the channel
// the new worker will report on; the caller waits for the Result off its
// own loop and passes it to Complete.
package surface

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/worker"
)

// UserLabel tags user entries in the transcript.
const UserLabel = "You"

// Starter launches one worker for message using modelName.
type Starter func(modelName, message string) <-chan worker.Result

// Recorder persists transcript entries. Failures are logged and otherwise
// ignored.
type Recorder interface {
	Record(model.Entry) error
}

// Option configures a Surface.
type Option func(*Surface)

// WithRecorder sets the transcript recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Surface) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.log = l
		}
	}
}

// Surface is the chat surface state. It is safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	start    Starter
	model    string
	recorder Recorder
	log      *zap.Logger

	previous    string
	hasPrevious bool

	entries  []model.Entry
	inflight int
}

// New creates a surface that launches workers with start.
func New(modelName string, start Starter, opts ...Option) *Surface {
	s := &Surface{
		start: start,
		model: modelName,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles one submission. It returns false, and does nothing else,
// when input is identical to the immediately preceding submission.
// Otherwise it records input as the previous submission, appends it to the
// transcript, raises the busy indicator and starts one worker.
func (s *Surface) Submit(input string) (<-chan worker.Result, bool) {
	s.mu.Lock()
	if s.hasPrevious && input == s.previous {
		s.mu.Unlock()
		s.log.Debug("duplicate submission ignored")
		return nil, false
	}
	s.previous = input
	s.hasPrevious = true
	s.inflight++
	entry := s.appendLocked(model.Entry{Kind: model.EntryUser, Label: UserLabel, Text: input})
	modelName := s.model
	s.mu.Unlock()

	s.record(entry)
	return s.start(modelName, input), true
}

// Complete applies a worker's terminal event: the reply (or error text) is
// appended under the model's name and, when the completion flag is set,
// the worker is released. The busy indicator drops once no worker is in
// flight.
func (s *Surface) Complete(res worker.Result) model.Entry {
	s.mu.Lock()
	label := res.Model
	if label == "" {
		label = s.model
	}
	kind := model.EntryAssistant
	if res.Err != nil {
		kind = model.EntryError
	}
	entry := s.appendLocked(model.Entry{TurnID: res.TurnID, Kind: kind, Label: label, Text: res.Text})
	if res.Done && s.inflight > 0 {
		s.inflight--
	}
	s.mu.Unlock()

	s.record(entry)
	return entry
}

// Busy reports whether the busy indicator is shown.
func (s *Surface) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// InFlight returns the number of running workers.
func (s *Surface) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Entries returns a copy of the transcript.
func (s *Surface) Entries() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// LastReply returns the most recent successful assistant reply.
func (s *Surface) LastReply() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Kind == model.EntryAssistant {
			return s.entries[i].Text, true
		}
	}
	return "", false
}

// Model returns the model used for the next turn.
func (s *Surface) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel changes the model used for later turns. Running turns keep
// the model they started with.
func (s *Surface) SetModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" && name != s.model {
		s.log.Info("model changed", zap.String("from", s.model), zap.String("to", name))
		s.model = name
	}
}

func (s *Surface) appendLocked(e model.Entry) model.Entry {
	e.ID = uuid.NewString()
	e.At = time.Now()
	s.entries = append(s.entries, e)
	return e
}

func (s *Surface) record(e model.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(e); err != nil {
		s.log.Warn("failed to record transcript entry", zap.Error(err), zap.String("entry_id", e.ID))
	}
}
