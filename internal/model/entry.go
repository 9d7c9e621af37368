// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// EntryKind distinguishes transcript entries.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAssistant
	EntryError
)

// String returns the kind as stored in history.
func (k EntryKind) String() string {
	switch k {
	case EntryUser:
		return "user"
	case EntryAssistant:
		return "assistant"
	case EntryError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one block of a displayed transcript: a user submission, a
// reply, or an error.
type Entry struct {
	ID     string
	TurnID string
	Kind   EntryKind
	Label  string
	Text   string
	At     time.Time
}
