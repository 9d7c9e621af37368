// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript history persistence for llmchat.
//
// History is opt-in. When enabled, every entry the chat surface appends is
// written to a pure-Go SQLite database (~/.llmchat/history.db by default),
// tagged with a session ID that is fresh for each program run.
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	s := surface.New(model, start, surface.WithRecorder(store))
//
// # Thread Safety
//
// HistoryStore is safe for concurrent use.
package storage
