// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/llmchat/internal/ollama"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered, append-only sequence of turns owned by one
// request cycle. It is not safe for concurrent use; a worker owns its
// conversation until it reports completion.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	turns []Turn
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Append adds a turn at the end. Turns are never removed or reordered.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the turns in order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Last returns the most recent turn and whether there is one.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Messages converts the conversation to the wire messages array.
func (c *Conversation) Messages() []ollama.Message {
	msgs := make([]ollama.Message, 0, len(c.turns))
	for _, t := range c.turns {
		msgs = append(msgs, t.ToOllama())
	}
	return msgs
}
