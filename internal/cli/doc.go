// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the llmchat command line.
//
// The root command runs a chat session: the full-screen view from
// internal/ui/chat when stdin and stdout are terminals, otherwise a plain
// line-mode prompt (liner when interactive, a line scanner when piped).
// Both drive the same surface.Surface, so the duplicate-submission guard
// and the one-worker-per-turn rule hold in either mode.
//
// Subcommands:
//
//	ask       one turn, reply on stdout
//	models    installed models (GET /api/tags)
//	status    server reachability (GET /)
//	history   recorded entries and sessions, prune, export
//	config    show, path, init, get, set
//
// Config resolution is file, then environment, then flags; see
// internal/config.
package cli
