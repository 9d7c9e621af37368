// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation data types.
//
// A Turn is one user or assistant message. A Conversation is the ordered,
// append-only list of turns belonging to one request cycle; a new one is
// started for every user submission.
//
// An Entry is one block of the displayed transcript. The chat surface
// produces entries and the history store persists them.
package model
