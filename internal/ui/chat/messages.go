// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/llmchat/internal/worker"
)

// TurnCompleteMsg delivers a worker's terminal event to the update loop.
type TurnCompleteMsg struct {
	Result worker.Result
}

// ConfigReloadedMsg reports a config file change. An empty Model leaves
// the current one in place.
type ConfigReloadedMsg struct {
	Model    string
	Markdown bool
}

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	size int
	err  error
}

// waitForResult blocks off the update loop until the worker reports.
func waitForResult(ch <-chan worker.Result) tea.Cmd {
	return func() tea.Msg {
		return TurnCompleteMsg{Result: <-ch}
	}
}
