// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/fixonway/fixonway-tui/internal/chat"
	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/realtime"
	"github.com/fixonway/fixonway-tui/internal/ui/components"
	"github.com/fixonway/fixonway-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// paneFocus tracks which pane receives key input.
type paneFocus int

const (
	focusRoster paneFocus = iota
	focusComposer
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat view.
type Options struct {
	// RosterWidth is the sidebar width in columns.
	RosterWidth int
	// Clock24h renders transcript times as 15:04.
	Clock24h bool
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	svc  *core.Service
	user model.User

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	opts   Options

	// Snapshots of the core, refreshed on every notice.
	roster core.RosterSnapshot
	conv   core.ConversationSnapshot

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spin     components.Spinner
	status   components.StatusBar
	banner   components.ErrorBanner

	// Key bindings
	keyMap KeyMap

	// Pane focus and roster cursor
	focus  paneFocus
	cursor int

	// Per-conversation drafts
	drafts core.Composer

	ready bool
}

// New creates the chat screen for a signed-in user.
func New(svc *core.Service, user model.User, theme *styles.Theme, opts Options) Model {
	if opts.RosterWidth <= 0 {
		opts.RosterWidth = 32
	}

	input := textinput.New()
	input.Placeholder = "Type a message"
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 2000

	return Model{
		svc:    svc,
		user:   user,
		theme:  theme,
		opts:   opts,
		input:  input,
		spin:   components.NewSpinner(theme, "loading"),
		status: components.NewStatusBar(theme, user.DisplayName()),
		banner: components.NewErrorBanner(theme),
		keyMap: DefaultKeyMap(),
		roster: svc.Roster(),
		conv:   svc.Conversation(),
	}
}

// Init starts the notice pump and requests the roster.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForNotice(m.svc.Notices()),
		m.spin.Tick(),
		textinput.Blink,
		func() tea.Msg {
			m.svc.LoadRoster()
			return nil
		},
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case NoticeMsg:
		cmds = append(cmds, m.applyNotice(msg.Notice))
		cmds = append(cmds, waitForNotice(m.svc.Notices()))

	case NoticesClosedMsg:
		return m, tea.Quit

	case ConfigReloadedMsg:
		if msg.RosterWidth > 0 {
			m.opts.RosterWidth = msg.RosterWidth
		}
		m.opts.Clock24h = msg.Clock24h
		m.resize(m.width, m.height)

	case components.BannerExpiredMsg:
		m.banner.Update(msg)

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focus == focusComposer {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// STATE UPDATES
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	chatWidth := width - m.opts.RosterWidth - 1
	if chatWidth < 20 {
		chatWidth = 20
	}
	// Header, input border, input line, status bar.
	chatHeight := height - 4
	if chatHeight < 3 {
		chatHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = chatHeight
	}
	m.input.Width = chatWidth - 4
	m.refreshTranscript(true)
}

// applyNotice refreshes the affected snapshot and surfaces errors.
func (m *Model) applyNotice(n core.Notice) tea.Cmd {
	switch n.Kind {
	case core.NoticeRoster:
		m.roster = m.svc.Roster()
		m.clampCursor()
		m.status.SetUnread(m.roster.Unread)

	case core.NoticeConversation:
		wasBottom := m.viewport.AtBottom()
		prev := m.conv
		m.conv = m.svc.Conversation()
		m.refreshTranscript(wasBottom || prev.ChatID != m.conv.ChatID)

	case core.NoticeTransport:
		m.status.SetTransport(n.Transport)
		if n.Transport == realtime.StateConnected {
			// Re-sync after a reconnect; the outage may have dropped events.
			m.svc.LoadRoster()
		}

	case core.NoticeError:
		return m.banner.Show(n.Err)
	}
	return nil
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.roster.Chats) {
		m.cursor = len(m.roster.Chats) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey dispatches a key press. The second return reports whether the
// key was consumed and must not also reach the text input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keyMap.SwitchPane):
		m.toggleFocus()
		return nil, true

	case key.Matches(msg, m.keyMap.Refresh):
		m.svc.LoadRoster()
		return nil, true
	}

	if m.focus == focusRoster {
		return m.handleRosterKey(msg), true
	}
	return m.handleComposerKey(msg)
}

func (m *Model) handleRosterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.cursor < len(m.roster.Chats)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keyMap.Open):
		m.openSelected()
	case key.Matches(msg, m.keyMap.Back):
		m.svc.CloseConversation()
		m.refreshSnapshots()
	}
	return nil
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		m.drafts.SetDraft(m.conv.ChatID, m.input.Value())
		m.input.Reset()
		if text := m.drafts.Submit(m.conv.ChatID); text != "" {
			m.svc.SendMessage(text)
		}
		m.refreshSnapshots()
		m.refreshTranscript(true)
		return nil, true

	case key.Matches(msg, m.keyMap.Back):
		m.drafts.SetDraft(m.conv.ChatID, m.input.Value())
		m.input.Reset()
		m.input.Blur()
		m.svc.CloseConversation()
		m.refreshSnapshots()
		m.focus = focusRoster
		return nil, true

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return nil, true
	}
	// Everything else is text entry.
	return nil, false
}

func (m *Model) toggleFocus() {
	if m.focus == focusRoster {
		m.focus = focusComposer
		m.input.Focus()
	} else {
		m.drafts.SetDraft(m.conv.ChatID, m.input.Value())
		m.focus = focusRoster
		m.input.Blur()
	}
}

// openSelected opens the conversation under the cursor, stashing the draft
// of the one being left.
func (m *Model) openSelected() {
	if m.cursor >= len(m.roster.Chats) {
		return
	}
	selected := m.roster.Chats[m.cursor]
	if selected.ChatID == m.conv.ChatID && m.conv.State == core.ConvOpen {
		m.focus = focusComposer
		m.input.Focus()
		return
	}

	m.drafts.SetDraft(m.conv.ChatID, m.input.Value())
	m.svc.SelectConversation(selected)
	m.refreshSnapshots()
	m.refreshTranscript(true)
	m.input.SetValue(m.drafts.Draft(selected.ChatID))
	m.focus = focusComposer
	m.input.Focus()
}

// refreshSnapshots re-reads the core state right after issuing an intent,
// so the next render reflects it without waiting for the notice round-trip.
func (m *Model) refreshSnapshots() {
	m.roster = m.svc.Roster()
	m.conv = m.svc.Conversation()
	m.clampCursor()
	m.status.SetUnread(m.roster.Unread)
}
