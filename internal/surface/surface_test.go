// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/ollama"
	"github.com/jeranaias/llmchat/internal/worker"
)

// fakeStarter records every launch and returns a channel the test fills.
type fakeStarter struct {
	calls []string
	chans []chan worker.Result
	model []string
}

func (f *fakeStarter) start(modelName, message string) <-chan worker.Result {
	ch := make(chan worker.Result, 1)
	f.calls = append(f.calls, message)
	f.model = append(f.model, modelName)
	f.chans = append(f.chans, ch)
	return ch
}

type memRecorder struct {
	entries []model.Entry
	err     error
}

func (m *memRecorder) Record(e model.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func TestSurface_SubmitStartsOneWorker(t *testing.T) {
	f := &fakeStarter{}
	s := New("llama3.2-vision", f.start)

	ch, ok := s.Submit("hello")
	require.True(t, ok)
	require.NotNil(t, ch)

	assert.Equal(t, []string{"hello"}, f.calls)
	assert.Equal(t, []string{"llama3.2-vision"}, f.model)
	assert.True(t, s.Busy())

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.EntryUser, entries[0].Kind)
	assert.Equal(t, UserLabel, entries[0].Label)
	assert.Equal(t, "hello", entries[0].Text)
}

func TestSurface_DuplicateSubmissionIsNoop(t *testing.T) {
	f := &fakeStarter{}
	s := New("m", f.start)

	_, ok := s.Submit("same")
	require.True(t, ok)
	s.Complete(worker.Result{Model: "m", Text: "reply", Done: true})

	ch, ok := s.Submit("same")
	assert.False(t, ok)
	assert.Nil(t, ch)
	assert.Len(t, f.calls, 1, "no second request")
	assert.Len(t, s.Entries(), 2, "transcript unchanged")
}

func TestSurface_GuardComparesOnlyPreviousSubmission(t *testing.T) {
	f := &fakeStarter{}
	s := New("m", f.start)

	for _, msg := range []string{"a", "b", "a"} {
		_, ok := s.Submit(msg)
		assert.True(t, ok, "submit %q", msg)
	}
	assert.Equal(t, []string{"a", "b", "a"}, f.calls)
}

func TestSurface_FirstEmptySubmissionAccepted(t *testing.T) {
	f := &fakeStarter{}
	s := New("m", f.start)

	_, ok := s.Submit("")
	assert.True(t, ok)
	_, ok = s.Submit("")
	assert.False(t, ok)
}

func TestSurface_CompleteClearsBusy(t *testing.T) {
	f := &fakeStarter{}
	s := New("m", f.start)

	s.Submit("hi")
	entry := s.Complete(worker.Result{Model: "m", Text: "Hello", Done: true})

	assert.False(t, s.Busy())
	assert.Equal(t, model.EntryAssistant, entry.Kind)
	assert.Equal(t, "m", entry.Label)
	assert.Equal(t, "Hello", entry.Text)

	reply, ok := s.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "Hello", reply)

	_, ok = s.Submit("next")
	assert.True(t, ok, "new submission accepted after completion")
}

func TestSurface_IncompleteEventKeepsBusy(t *testing.T) {
	s := New("m", (&fakeStarter{}).start)

	s.Submit("hi")
	s.Complete(worker.Result{Model: "m", Text: "partial", Done: false})

	assert.True(t, s.Busy())
	assert.Len(t, s.Entries(), 2)
}

func TestSurface_ErrorEntry(t *testing.T) {
	s := New("m", (&fakeStarter{}).start)

	s.Submit("hi")
	err := &ollama.TransportError{StatusCode: 500, Message: "failed"}
	entry := s.Complete(worker.Result{Model: "m", Text: worker.ErrorPrefix + err.Error(), Done: true, Err: err})

	assert.Equal(t, model.EntryError, entry.Kind)
	assert.False(t, s.Busy())
	_, ok := s.LastReply()
	assert.False(t, ok, "errors are not replies")
}

func TestSurface_OverlappingTurns(t *testing.T) {
	s := New("m", (&fakeStarter{}).start)

	s.Submit("first")
	s.Submit("second")
	assert.Equal(t, 2, s.InFlight())

	// Completion order is arbitrary; busy holds until both are done.
	s.Complete(worker.Result{Model: "m", Text: "two", Done: true})
	assert.True(t, s.Busy())
	s.Complete(worker.Result{Model: "m", Text: "one", Done: true})
	assert.False(t, s.Busy())

	entries := s.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "two", entries[2].Text)
	assert.Equal(t, "one", entries[3].Text)
}

func TestSurface_SetModelAppliesToNextTurn(t *testing.T) {
	f := &fakeStarter{}
	s := New("old", f.start)

	s.Submit("one")
	s.SetModel("new")
	s.Submit("two")

	assert.Equal(t, []string{"old", "new"}, f.model)
	assert.Equal(t, "new", s.Model())

	s.SetModel("")
	assert.Equal(t, "new", s.Model(), "empty model is ignored")
}

func TestSurface_RecordsEntries(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	s := New("m", (&fakeStarter{}).start, WithRecorder(rec))

	s.Submit("hi")
	s.Complete(worker.Result{TurnID: "t1", Model: "m", Text: "yo", Done: true})

	require.Len(t, rec.entries, 2, "recorder errors do not stop recording")
	assert.Equal(t, model.EntryUser, rec.entries[0].Kind)
	assert.Equal(t, "t1", rec.entries[1].TurnID)
	assert.NotEmpty(t, rec.entries[1].ID)
}
