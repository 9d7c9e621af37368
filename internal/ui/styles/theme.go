// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/llmchat/internal/util"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorLabel     lipgloss.Style
	Body           lipgloss.Style
	ErrorText      lipgloss.Style

	InputPrompt lipgloss.Style
	Spinner     lipgloss.Style
	StatusBar   lipgloss.Style
	StatusBusy  lipgloss.Style
	StatusReady lipgloss.Style
	Notice      lipgloss.Style
	Help        lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Purple).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.ErrorLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.Body = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		PaddingLeft(2)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusBusy = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StatusReady = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Notice = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// HeaderText returns the plain header text for a given width: the title,
// plus the model name when there is room. Narrow layouts drop the model.
func (t *Theme) HeaderText(title, modelName string) string {
	inner := t.Width - 2
	if inner <= 0 {
		return title
	}
	text := title
	if t.GetLayoutMode() != LayoutNarrow && modelName != "" {
		text = title + " · " + modelName
	}
	return util.TruncateWidth(text, inner)
}

// RenderHeader renders the header bar.
func (t *Theme) RenderHeader(title, modelName string) string {
	text := t.HeaderText(title, modelName)
	styled := t.HeaderTitle.Render(text)
	if len(text) > len(title) && text[:len(title)] == title {
		styled = t.HeaderTitle.Render(title) + t.HeaderModel.Render(text[len(title):])
	}
	if t.Width > 0 {
		return t.Header.Width(t.Width).Render(styled)
	}
	return t.Header.Render(styled)
}

// RenderStatus renders the status bar with the busy or ready state on the
// left and help on the right.
func (t *Theme) RenderStatus(state string, busy bool, help string) string {
	left := t.StatusReady.Render(state)
	if busy {
		left = t.StatusBusy.Render(state)
	}
	right := t.Help.Render(help)

	gap := t.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return t.StatusBar.Render(left)
	}
	return t.StatusBar.Width(t.Width).Render(left + strings.Repeat(" ", gap) + right)
}
