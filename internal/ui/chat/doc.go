// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for llmchat.

The view is a Bubble Tea model with a header, a scrolling transcript
(bubbles/viewport), a single-line input (bubbles/textinput), and a status
bar that shows a spinner while any turn is in flight.

# Turns

Enter and ctrl+s both submit. The surface decides whether the submission
is a duplicate; if it is, Update returns no command. Otherwise the
surface starts a worker and the view returns a command that waits on the
worker's channel and delivers a TurnCompleteMsg. Handling that message
appends the reply and scrolls to the end.

# Rendering

Assistant replies are rendered as markdown with glamour when enabled. The
user's text and error entries are wrapped plain text.

# Config Reload

Send ConfigReloadedMsg (for example from a config.Watcher callback via
tea.Program.Send) to switch the model for the next turn.
*/
package chat
