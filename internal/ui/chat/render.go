// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/ui/styles"
)

// Renderer turns transcript entries into styled text. Assistant replies
// go through glamour when markdown is on; everything else is wrapped as
// plain text.
type Renderer struct {
	theme    *styles.Theme
	markdown bool
	wrap     int

	md      *glamour.TermRenderer
	mdWidth int
}

// NewRenderer creates a renderer. wrap caps the wrap width (0 = view width).
func NewRenderer(theme *styles.Theme, markdown bool, wrap int) *Renderer {
	return &Renderer{theme: theme, markdown: markdown, wrap: wrap}
}

// SetMarkdown toggles markdown rendering.
func (r *Renderer) SetMarkdown(on bool) {
	r.markdown = on
}

// Entry renders one transcript entry at the given view width.
func (r *Renderer) Entry(e model.Entry, width int) string {
	w := r.wrapWidth(width)

	var label lipgloss.Style
	switch e.Kind {
	case model.EntryUser:
		label = r.theme.UserLabel
	case model.EntryError:
		label = r.theme.ErrorLabel
	default:
		label = r.theme.AssistantLabel
	}

	var body string
	switch {
	case e.Kind == model.EntryError:
		body = r.theme.ErrorText.Width(w).Render(e.Text)
	case e.Kind == model.EntryAssistant && r.markdown:
		body = r.renderMarkdown(e.Text, w)
	default:
		body = r.theme.Body.Width(w).Render(e.Text)
	}

	return label.Render(e.Label+":") + "\n" + body
}

// Transcript renders all entries separated by blank lines.
func (r *Renderer) Transcript(entries []model.Entry, width int) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = r.Entry(e, width)
	}
	return strings.Join(blocks, "\n\n")
}

func (r *Renderer) wrapWidth(width int) int {
	w := width - 2
	if r.wrap > 0 && r.wrap < w {
		w = r.wrap
	}
	if w < 10 {
		w = 10
	}
	return w
}

// renderMarkdown falls back to plain text if glamour fails.
func (r *Renderer) renderMarkdown(text string, width int) string {
	if r.md == nil || r.mdWidth != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return r.theme.Body.Width(width).Render(text)
		}
		r.md, r.mdWidth = md, width
	}

	out, err := r.md.Render(text)
	if err != nil {
		return r.theme.Body.Width(width).Render(text)
	}
	return strings.Trim(out, "\n")
}
