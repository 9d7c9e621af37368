// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/llmchat/internal/config"
)

// fakeOllama serves /, /api/tags and /api/chat and records chat requests.
type fakeOllama struct {
	*httptest.Server

	mu       sync.Mutex
	requests []map[string]interface{}
	status   int
	reply    string
}

func newFakeOllama(t *testing.T) *fakeOllama {
	t.Helper()
	f := &fakeOllama{
		status: http.StatusOK,
		reply: `{"message":{"role":"assistant","content":"Hel"},"done":false}` + "\n" +
			`{"message":{"role":"assistant","content":"lo"},"done":false}` + "\n" +
			`{"message":{"role":"assistant","content":""},"done":true}` + "\n",
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOllama) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		io.WriteString(w, "Ollama is running")
	case "/api/tags":
		io.WriteString(w, `{"models":[
			{"name":"mistral:latest","size":4109865159,"modified_at":"2024-05-01T10:00:00Z","details":{"parameter_size":"7.2B","quantization_level":"Q4_0"}},
			{"name":"llama3.2-vision","size":7901829417,"modified_at":"2024-06-01T10:00:00Z","details":{}}
		]}`)
	case "/api/chat":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.requests = append(f.requests, body)
		status, reply := f.status, f.reply
		f.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, reply)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) chatRequests() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.requests...)
}

// isolate points HOME at a temp dir and clears config environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{"LLMCHAT_MODEL", "LLMCHAT_ENDPOINT", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAccumulatedReply(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)

	out, err := run(t, "", "ask", "--url", srv.URL, "hi", "there")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)

	reqs := srv.chatRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "llama3.2-vision", reqs[0]["model"])
	msgs := reqs[0]["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]interface{}{"role": "user", "content": "hi there"}, msgs[0])
}

func TestAsk_ModelFlagAndStdin(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)

	_, err := run(t, "from stdin\n", "ask", "--url", srv.URL, "-m", "mistral")
	require.NoError(t, err)

	reqs := srv.chatRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "mistral", reqs[0]["model"])
	msg := reqs[0]["messages"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "from stdin", msg["content"])
}

func TestAsk_Non200IsReportedOnce(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)
	srv.status = http.StatusServiceUnavailable
	srv.reply = `{"error":"model is loading"}`

	_, err := run(t, "", "ask", "--url", srv.URL, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model is loading")
	assert.Len(t, srv.chatRequests(), 1, "never retried")
}

func TestAsk_NoMessage(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "ask")
	assert.Error(t, err)
}

// =============================================================================
// PLAIN REPL
// =============================================================================

func TestPlain_PipedInputSkipsDuplicates(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)

	out, err := run(t, "hi\nhi\nsomething else\nhi\n/quit\nnever sent\n", "--url", srv.URL)
	require.NoError(t, err)

	reqs := srv.chatRequests()
	require.Len(t, reqs, 3, "the repeated line is not sent")
	contents := make([]string, len(reqs))
	for i, r := range reqs {
		contents[i] = r["messages"].([]interface{})[0].(map[string]interface{})["content"].(string)
	}
	assert.Equal(t, []string{"hi", "something else", "hi"}, contents)
	assert.Equal(t, 3, strings.Count(out, "llama3.2-vision: Hello"))
}

func TestPlain_ErrorShownWithPrefix(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)
	srv.reply = `{"message":{"content":"ok"},"done":false}` + "\n" + `not json` + "\n"

	out, err := run(t, "hi\n", "--plain", "--url", srv.URL)
	require.NoError(t, err, "a failed turn does not end the session")
	assert.Contains(t, out, "llama3.2-vision: Error: ")
	assert.Contains(t, out, "line 2")
}

// =============================================================================
// MODELS AND STATUS
// =============================================================================

func TestModels_ListsSortedWithMarker(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)

	out, err := run(t, "", "models", "--url", srv.URL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "llama3.2-vision*"), lines[1])
	assert.Contains(t, lines[1], "7.9 GB")
	assert.True(t, strings.HasPrefix(lines[2], "mistral:latest"), lines[2])
	assert.Contains(t, lines[2], "Q4_0")
}

func TestStatus(t *testing.T) {
	isolate(t)
	srv := newFakeOllama(t)

	out, err := run(t, "", "status", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK]")

	url := srv.URL
	srv.Close()
	out, err = run(t, "", "status", "--url", url)
	require.Error(t, err)
	assert.Contains(t, out, "[FAIL]")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigCommands(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".llmchat", "config.toml")

	out, err := run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	_, err = run(t, "", "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, "", "config", "init")
	assert.Error(t, err, "init refuses to overwrite")

	_, err = run(t, "", "config", "set", "model", "phi3")
	require.NoError(t, err)
	_, err = run(t, "", "config", "set", "log.level", "chatty")
	assert.Error(t, err, "invalid values are not written")

	out, err = run(t, "", "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "phi3\n", out)

	t.Setenv("LLMCHAT_MODEL", "from-env")
	out, err = run(t, "", "config", "get", "model")
	require.NoError(t, err)
	assert.Equal(t, "from-env\n", out, "environment wins over the file")

	out, err = run(t, "", "--model", "from-flag", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `model = "from-flag"`)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.Model, "env and flags never reach the file")
}

func TestInvalidConfigFileStillAllowsConfigInit(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".llmchat", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("endpoint = \"nope\"\n"), 0600))

	_, err := run(t, "", "status")
	require.Error(t, err)

	_, err = run(t, "", "config", "init", "--force")
	require.NoError(t, err)
	_, err = run(t, "", "config", "show")
	assert.NoError(t, err)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_RecordsWhenEnabled(t *testing.T) {
	home := isolate(t)
	srv := newFakeOllama(t)

	out, err := run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded.")

	_, err = run(t, "", "config", "set", "history.enabled", "true")
	require.NoError(t, err)

	_, err = run(t, "", "ask", "--url", srv.URL, "remember me")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".llmchat", "history.db"))
	require.NoError(t, err)

	out, err = run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "You: remember me")
	assert.Contains(t, out, "llama3.2-vision: Hello")

	out, err = run(t, "", "history", "--sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "remember me")

	out, err = run(t, "", "history", "--export", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "# remember me")
	assert.Contains(t, out, "### llama3.2-vision")

	dest := filepath.Join(home, "chat.json")
	_, err = run(t, "", "history", "--export", "json", "--output", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "Hello"`)

	_, err = run(t, "", "history", "--export", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
	_, err = run(t, "", "history", "--export", "md", "--session", "nope")
	assert.ErrorContains(t, err, "session not found")

	out, err = run(t, "", "history", "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 entries.")
}

// =============================================================================
// LAUNCHER
// =============================================================================

func TestLauncher_EndpointSwitchAppliesToNextTurn(t *testing.T) {
	first := newFakeOllama(t)
	second := newFakeOllama(t)

	l := newLauncher(context.Background(), first.URL, nopLogger())
	res := <-l.Start("m", "one")
	require.NoError(t, res.Err)

	l.SetEndpoint(second.URL)
	res = <-l.Start("m", "two")
	require.NoError(t, res.Err)

	assert.Len(t, first.chatRequests(), 1)
	assert.Len(t, second.chatRequests(), 1)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
