// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages llmchat configuration.
//
// Settings come from a TOML file (JSON when the name ends in .json), with
// sensible defaults, environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Highest first:
//   - Command-line flags (--model, --url, --debug)
//   - Environment variables (LLMCHAT_MODEL, LLMCHAT_ENDPOINT, OLLAMA_HOST)
//   - ~/.llmchat/config.toml, or the file named by --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	config.Overrides{Model: flagModel}.Apply(cfg)
//
// A Watcher reloads the file on change; the interactive UI uses it to pick
// up a new model for the next turn.
package config
