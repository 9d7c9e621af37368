// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/llmchat/internal/ollama"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = ollama.RoleUser
	RoleAssistant Role = ollama.RoleAssistant
)

// String returns the wire form of the role.
func (r Role) String() string {
	return string(r)
}

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user turn stamped with the current time.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantTurn creates an assistant turn stamped with the current time.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// ToOllama converts the turn to its wire message.
func (t Turn) ToOllama() ollama.Message {
	return ollama.Message{Role: t.Role.String(), Content: t.Content}
}
