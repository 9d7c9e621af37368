// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/llmchat/internal/surface"
	"github.com/jeranaias/llmchat/internal/ui/styles"
)

// BusyText is shown next to the spinner while a turn is in flight.
const BusyText = "Generating..."

// Options configures the chat view.
type Options struct {
	Title    string
	Markdown bool
	WordWrap int
	// CopyFunc writes to the clipboard; nil uses the system clipboard.
	CopyFunc func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. Conversation state lives
// in the surface; the model only renders it and routes input.
type Model struct {
	surface  *surface.Surface
	theme    *styles.Theme
	renderer *Renderer
	keyMap   KeyMap
	title    string
	copyFn   func(string) error

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	ready    bool
	spinning bool
	width    int
	height   int
	notice   string
}

// New creates a chat view over s.
func New(s *surface.Surface, theme *styles.Theme, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames render everywhere.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	title := opts.Title
	if title == "" {
		title = "llmchat"
	}
	copyFn := opts.CopyFunc
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	return Model{
		surface:  s,
		theme:    theme,
		renderer: NewRenderer(theme, opts.Markdown, opts.WordWrap),
		keyMap:   DefaultKeyMap(),
		title:    title,
		copyFn:   copyFn,
		input:    ti,
		viewport: vp,
		spinner:  sp,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case TurnCompleteMsg:
		return m.handleTurnComplete(msg)

	case ConfigReloadedMsg:
		m.surface.SetModel(msg.Model)
		m.renderer.SetMarkdown(msg.Markdown)
		m.notice = "Config reloaded, model " + m.surface.Model()
		m.refresh()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Failed to copy: " + msg.err.Error()
		} else {
			m.notice = fmt.Sprintf("Copied reply (%d chars)", msg.size)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.surface.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.RenderHeader(m.title, m.surface.Model()),
		m.viewport.View(),
		m.input.View(),
		m.theme.RenderStatus(m.statusText(), m.surface.Busy(), HelpLine(m.keyMap.ShortHelp())),
	)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	headerHeight := lipgloss.Height(m.theme.RenderHeader(m.title, m.surface.Model()))
	// Input line plus status bar.
	footerHeight := 2
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
	m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 1
	m.ready = true
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit), key.Matches(msg, m.keyMap.Send):
		return m.submit()

	case key.Matches(msg, m.keyMap.Copy):
		return m, m.copyLastReply()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the surface. A duplicate submission leaves
// everything as it was and issues no command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	ch, ok := m.surface.Submit(m.input.Value())
	if !ok {
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.refresh()

	cmds := []tea.Cmd{waitForResult(ch)}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleTurnComplete(msg TurnCompleteMsg) (tea.Model, tea.Cmd) {
	m.surface.Complete(msg.Result)
	m.refresh()
	return m, nil
}

func (m Model) copyLastReply() tea.Cmd {
	reply, ok := m.surface.LastReply()
	if !ok {
		return func() tea.Msg { return copiedMsg{err: fmt.Errorf("no reply to copy")} }
	}
	copyFn := m.copyFn
	return func() tea.Msg {
		return copiedMsg{size: len(reply), err: copyFn(reply)}
	}
}

// refresh re-renders the transcript and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderer.Transcript(m.surface.Entries(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) statusText() string {
	if m.surface.Busy() {
		return m.spinner.View() + " " + BusyText
	}
	if m.notice != "" {
		return m.notice
	}
	return "Ready"
}

// Surface returns the surface the view renders.
func (m Model) Surface() *surface.Surface {
	return m.surface
}
