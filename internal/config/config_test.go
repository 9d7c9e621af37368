// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"LLMCHAT_MODEL", "LLMCHAT_ENDPOINT", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Model != "llama3.2-vision" {
		t.Errorf("Expected default model 'llama3.2-vision', got '%s'", cfg.Model)
	}
	if cfg.Endpoint != "http://localhost:11434" {
		t.Errorf("Expected default endpoint 'http://localhost:11434', got '%s'", cfg.Endpoint)
	}
	if cfg.History.Enabled {
		t.Error("History should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"empty model", func(c *Config) { c.Model = "  " }, true},
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"bad scheme", func(c *Config) { c.Endpoint = "ftp://localhost:11434" }, true},
		{"missing host", func(c *Config) { c.Endpoint = "http://" }, true},
		{"https endpoint", func(c *Config) { c.Endpoint = "https://gpu.example:443" }, false},
		{"invalid log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"upper-case log level", func(c *Config) { c.Log.Level = "DEBUG" }, false},
		{"negative wrap", func(c *Config) { c.UI.WordWrap = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsEveryField(t *testing.T) {
	c := Default()
	c.Model = ""
	c.Log.Level = "nope"

	err := c.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(verrs), verrs)
	}
	if verrs[0].Field != "model" || verrs[1].Field != "log.level" {
		t.Errorf("unexpected fields: %v", verrs)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
model = "mistral"
endpoint = "http://gpu-box:11434"

[ui]
markdown = false

[history]
enabled = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "mistral" {
		t.Errorf("Model = %q, want mistral", cfg.Model)
	}
	if cfg.Endpoint != "http://gpu-box:11434" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.UI.Markdown {
		t.Error("Markdown should be false")
	}
	if cfg.UI.WordWrap != 100 {
		t.Errorf("unset keys keep defaults, WordWrap = %d", cfg.UI.WordWrap)
	}
	if !cfg.History.Enabled {
		t.Error("History should be enabled")
	}
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"model":"phi3","log":{"level":"warn"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "phi3" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "modle = \"typo\"\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "modle") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoad_InvalidValueRejected(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "endpoint = \"localhost\"\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFile_MissingYieldsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q", cfg.Model)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLMCHAT_MODEL", "qwen2")
	t.Setenv("OLLAMA_HOST", "0.0.0.0:11434")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Model != "qwen2" {
		t.Errorf("Model = %q, want qwen2", cfg.Model)
	}
	if cfg.Endpoint != "http://0.0.0.0:11434" {
		t.Errorf("Endpoint = %q, want http://0.0.0.0:11434", cfg.Endpoint)
	}

	t.Setenv("LLMCHAT_ENDPOINT", "https://remote:8443")
	cfg.ApplyEnvOverrides()
	if cfg.Endpoint != "https://remote:8443" {
		t.Errorf("LLMCHAT_ENDPOINT should win over OLLAMA_HOST, got %q", cfg.Endpoint)
	}
}

func TestOverrides_Apply(t *testing.T) {
	cfg := Default()
	Overrides{}.Apply(cfg)
	if cfg.Model != DefaultModel || cfg.Log.Level != "info" {
		t.Error("empty overrides should change nothing")
	}

	Overrides{Model: "m", Endpoint: "http://x:1", Debug: true}.Apply(cfg)
	if cfg.Model != "m" || cfg.Endpoint != "http://x:1" || cfg.Log.Level != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Model = "saved-model"
	cfg.History.Enabled = true
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Model != "saved-model" || !loaded.History.Enabled {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("model")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != DefaultModel {
		t.Errorf("Get('model') = %v", val)
	}

	if err := cfg.Set("ui.word_wrap", "72"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if val, _ := cfg.Get("ui.word_wrap"); val != 72 {
		t.Errorf("Get('ui.word_wrap') after Set = %v, want 72", val)
	}

	if err := cfg.Set("history.enabled", "maybe"); err == nil {
		t.Error("Set() with a non-bool should fail")
	}
	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	for _, k := range Keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("listed key %q not gettable: %v", k, err)
		}
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.Model = "cloned"

	if original.Model != DefaultModel {
		t.Error("Clone should create an independent copy")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "model = \"first\"\n")

	got := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, nil, func(c *Config) { got <- c })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	// An invalid edit is skipped.
	writeFile(t, path, "model = \"\"\n")
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "model = \"second\"\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if cfg.Model == "second" {
				if cur := w.Current(); cur == nil || cur.Model != "second" {
					t.Errorf("Current() = %+v", cur)
				}
				return
			}
			if cfg.Model == "" {
				t.Fatal("invalid config delivered")
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}
