// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/llmchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete llmchat configuration.
type Config struct {
	// Model is the model identifier sent with every turn.
	Model string `toml:"model" json:"model"`

	// Endpoint is the inference server base URL.
	Endpoint string `toml:"endpoint" json:"endpoint"`

	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	History HistoryConfig `toml:"history" json:"history"`
}

// UIConfig contains display preferences.
type UIConfig struct {
	// Markdown renders assistant replies as markdown.
	Markdown bool `toml:"markdown" json:"markdown"`
	// WordWrap is the wrap width for rendered replies (0 = terminal width).
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
	// File receives the interactive UI's logs (empty = ~/.llmchat/llmchat.log).
	File string `toml:"file" json:"file"`
}

// HistoryConfig controls transcript recording.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite database (empty = ~/.llmchat/history.db).
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultModel    = "llama3.2-vision"
	DefaultEndpoint = "http://localhost:11434"
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Model:    DefaultModel,
		Endpoint: DefaultEndpoint,
		UI: UIConfig{
			Markdown: true,
			WordWrap: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the llmchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".llmchat"), nil
}

// DefaultPath returns the path to the default TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the configured log file, or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "llmchat.log"), nil
}

// HistoryPath returns the configured history database, or the default one.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (the default path when empty). A
// missing default file is not an error; a missing explicit file is.
// Environment overrides are applied after the file, then the result is
// validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if explicit {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile returns the defaults overlaid with the file at path, without
// environment overrides or validation. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := decodeFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile decodes TOML, or JSON when the path ends in .json, on top of
// whatever cfg already holds.
func decodeFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON file %s: %w", path, err)
		}
		return nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - LLMCHAT_MODEL: overrides model
//   - LLMCHAT_ENDPOINT: overrides endpoint
//   - OLLAMA_HOST: overrides endpoint when LLMCHAT_ENDPOINT is unset
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("LLMCHAT_MODEL"); model != "" {
		c.Model = model
	}

	if endpoint := os.Getenv("LLMCHAT_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	} else if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Endpoint = normalizeHost(host)
	}
}

// Overrides carries command-line values that win over file and environment.
type Overrides struct {
	Model    string
	Endpoint string
	Debug    bool
}

// Apply copies the non-empty overrides into c.
func (o Overrides) Apply(c *Config) {
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.Endpoint != "" {
		c.Endpoint = o.Endpoint
	}
	if o.Debug {
		c.Log.Level = "debug"
	}
}

// normalizeHost turns OLLAMA_HOST forms such as "0.0.0.0:11434" or
// "example:11434" into a URL.
func normalizeHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes cfg as TOML to path with 0600 permissions.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# llmchat configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<unprintable config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}

	u, err := url.Parse(c.Endpoint)
	switch {
	case c.Endpoint == "":
		errs = append(errs, ValidationError{Field: "endpoint", Message: "must not be empty"})
	case err != nil:
		errs = append(errs, ValidationError{Field: "endpoint", Message: err.Error()})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{Field: "endpoint", Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme)})
	case u.Host == "":
		errs = append(errs, ValidationError{Field: "endpoint", Message: "missing host"})
	}

	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// Keys lists the settable keys in dot notation.
var Keys = []string{
	"model",
	"endpoint",
	"ui.markdown",
	"ui.word_wrap",
	"log.level",
	"log.file",
	"history.enabled",
	"history.path",
}

// Get returns the value of a key in dot notation.
func (c *Config) Get(key string) (interface{}, error) {
	switch key {
	case "model":
		return c.Model, nil
	case "endpoint":
		return c.Endpoint, nil
	case "ui.markdown":
		return c.UI.Markdown, nil
	case "ui.word_wrap":
		return c.UI.WordWrap, nil
	case "log.level":
		return c.Log.Level, nil
	case "log.file":
		return c.Log.File, nil
	case "history.enabled":
		return c.History.Enabled, nil
	case "history.path":
		return c.History.Path, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// Set parses value for key and stores it. The result is not validated.
func (c *Config) Set(key, value string) error {
	switch key {
	case "model":
		c.Model = value
	case "endpoint":
		c.Endpoint = value
	case "ui.markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.UI.Markdown = b
	case "ui.word_wrap":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.UI.WordWrap = n
	case "log.level":
		c.Log.Level = strings.ToLower(value)
	case "log.file":
		c.Log.File = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.History.Enabled = b
	case "history.path":
		c.History.Path = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
