// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/ollama"
)

// ndjsonServer serves body for every /api/chat request and counts requests.
func ndjsonServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal event")
		return Result{}
	}
}

func TestWorker_AccumulatesStreamedReply(t *testing.T) {
	srv, hits := ndjsonServer(t, http.StatusOK,
		`{"message":{"content":"He"},"done":false}`+"\n"+
			`{"message":{"content":"llo"},"done":false}`+"\n"+
			`{"message":{"content":""},"done":true}`+"\n")

	w := New(ollama.NewClient(srv.URL), "llama3.2-vision", "hi", nil)
	res := waitResult(t, w.Start(context.Background()))

	require.NoError(t, res.Err)
	assert.Equal(t, "Hello", res.Text)
	assert.True(t, res.Done)
	assert.Equal(t, "llama3.2-vision", res.Model)
	assert.Equal(t, w.ID(), res.TurnID)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits), "exactly one request per turn")

	require.Len(t, res.Conversation, 2)
	assert.Equal(t, model.RoleUser, res.Conversation[0].Role)
	assert.Equal(t, "hi", res.Conversation[0].Content)
	assert.Equal(t, model.RoleAssistant, res.Conversation[1].Role)
	assert.Equal(t, "Hello", res.Conversation[1].Content)
}

func TestWorker_Non200IsTerminalError(t *testing.T) {
	srv, hits := ndjsonServer(t, http.StatusInternalServerError, `{"error":"boom"}`)

	res := waitResult(t, New(ollama.NewClient(srv.URL), "m", "hi", nil).Start(context.Background()))

	require.Error(t, res.Err)
	assert.True(t, ollama.IsTransport(res.Err))
	assert.True(t, res.Done)
	assert.True(t, strings.HasPrefix(res.Text, ErrorPrefix), "text %q", res.Text)
	assert.Contains(t, res.Text, "500")
	assert.EqualValues(t, 1, atomic.LoadInt32(hits), "no retry")
	assert.Len(t, res.Conversation, 1, "no assistant turn accumulated")
}

func TestWorker_MalformedLineIsTerminalError(t *testing.T) {
	srv, _ := ndjsonServer(t, http.StatusOK,
		`{"message":{"content":"partial"},"done":false}`+"\n"+
			`{oops`+"\n"+
			`{"message":{"content":"late"},"done":true}`+"\n")

	res := waitResult(t, New(ollama.NewClient(srv.URL), "m", "hi", nil).Start(context.Background()))

	require.Error(t, res.Err)
	assert.True(t, ollama.IsDecode(res.Err))
	assert.True(t, res.Done)
	assert.True(t, strings.HasPrefix(res.Text, ErrorPrefix))
	assert.NotContains(t, res.Text, "late")
	assert.NotContains(t, res.Text, "partial")
}

func TestWorker_InStreamServerErrorIsTerminal(t *testing.T) {
	srv, hits := ndjsonServer(t, http.StatusOK,
		`{"message":{"content":"He"},"done":false}`+"\n"+
			`{"error":"model runner has unexpectedly stopped"}`+"\n")

	res := waitResult(t, New(ollama.NewClient(srv.URL), "m", "hi", nil).Start(context.Background()))

	require.Error(t, res.Err)
	assert.True(t, ollama.IsTransport(res.Err))
	assert.True(t, res.Done)
	assert.Equal(t, ErrorPrefix+"model runner has unexpectedly stopped", res.Text)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits), "no retry")
	assert.Len(t, res.Conversation, 1, "no assistant turn accumulated")
}

func TestWorker_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(ollama.NewClient(url), "m", "hi", nil).Run(context.Background())

	assert.True(t, ollama.IsTransport(res.Err))
	assert.True(t, res.Done)
	assert.True(t, strings.HasPrefix(res.Text, ErrorPrefix))
}

type panickingChatter struct{}

func (panickingChatter) ChatStream(context.Context, ollama.ChatRequest, ollama.StreamCallback) error {
	panic("unexpected")
}

func TestWorker_PanicBecomesTerminalError(t *testing.T) {
	res := waitResult(t, New(panickingChatter{}, "m", "hi", nil).Start(context.Background()))

	require.Error(t, res.Err)
	assert.True(t, res.Done)
	assert.Contains(t, res.Text, "Error: unexpected failure")
}

type recordingChatter struct {
	req ollama.ChatRequest
}

func (c *recordingChatter) ChatStream(_ context.Context, req ollama.ChatRequest, cb ollama.StreamCallback) error {
	c.req = req
	cb(ollama.StreamChunk{Content: "ok", Done: true})
	return nil
}

func TestWorker_SendsOnlyTheUserMessage(t *testing.T) {
	c := &recordingChatter{}
	res := New(c, "custom-model", "question", nil).Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, "custom-model", c.req.Model)
	assert.Equal(t, []ollama.Message{{Role: "user", Content: "question"}}, c.req.Messages)
}
