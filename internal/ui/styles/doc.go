// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the llmchat terminal UI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection; termenv reports the color profile and background at startup.

# Color System (colors.go)

  - Cyan - Brand color, user labels and the input prompt
  - Purple - Assistant labels and the header border
  - Rose - Error entries
  - Amber - The busy indicator and notices
  - Emerald - The ready state

# Theme (theme.go)

Theme bundles the Lip Gloss styles used by the chat view and renders the
header and status bar. Header text is truncated by display width, so wide
runes in a model name never overflow the bar.

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	header := theme.RenderHeader("llmchat", "llama3.2-vision")
*/
package styles
