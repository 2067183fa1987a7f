// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	core "github.com/fixonway/fixonway-tui/internal/chat"
	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/ui/components"
	"github.com/fixonway/fixonway-tui/internal/util"
)

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	sidebar := m.renderSidebar()
	pane := m.renderConversation()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, pane)

	sections := []string{m.renderHeader(), body, m.renderStatusBar()}
	if m.banner.Visible() {
		sections = append([]string{m.banner.View(m.width)}, sections[1:]...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.Brand.Render("Fixonway")
	if !m.conv.Counterpart.IsZero() {
		title += "  ·  " + m.conv.Counterpart.DisplayName()
	}
	return m.theme.Header.Width(m.width).Render(title)
}

func (m Model) renderStatusBar() string {
	bar := m.status
	if m.focus == focusRoster {
		bar.SetShortcuts([]components.Shortcut{
			{Key: "↑↓", Desc: "select"},
			{Key: "enter", Desc: "open"},
			{Key: "C-c", Desc: "quit"},
		})
	} else {
		bar.SetShortcuts([]components.Shortcut{
			{Key: "enter", Desc: "send"},
			{Key: "esc", Desc: "back"},
			{Key: "tab", Desc: "roster"},
		})
	}
	return bar.View(m.width)
}

// =============================================================================
// ROSTER SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	width := m.opts.RosterWidth
	innerWidth := width - 3

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")

	switch {
	case m.roster.Loading && len(m.roster.Chats) == 0:
		b.WriteString(m.spin.View())
	case len(m.roster.Chats) == 0:
		b.WriteString(m.theme.RosterPreview.Render(" No conversations yet"))
	}

	for i, chat := range m.roster.Chats {
		// Truncate before styling: the unread badge carries escape codes
		// that width math must not see.
		title := util.TruncateWidth(chat.Title(), innerWidth-2)
		var line string
		if chat.Unread {
			line = m.theme.UnreadBadge.Render("● ") + title
		} else {
			line = "  " + title
		}
		preview := util.PadWidth("  "+chat.PreviewLine(innerWidth-2), innerWidth)

		style := m.theme.RosterItem
		if i == m.cursor && m.focus == focusRoster {
			style = m.theme.RosterSelected
		}
		b.WriteString(style.Width(width - 1).Render(line))
		b.WriteString("\n")
		b.WriteString(m.theme.RosterPreview.Render(preview))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// =============================================================================
// CONVERSATION PANE
// =============================================================================

func (m Model) renderConversation() string {
	switch m.conv.State {
	case core.ConvIdle:
		return m.renderIdle()
	case core.ConvJoining, core.ConvLoadingHistory:
		if len(m.conv.Messages) == 0 {
			return m.renderLoading()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderComposer(),
	)
}

func (m Model) renderIdle() string {
	msg := "Select a conversation to start chatting"
	return m.theme.EmptyState.
		Width(m.chatWidth()).
		Height(m.height - 3).
		Render("\n\n" + msg)
}

func (m Model) renderLoading() string {
	return m.theme.EmptyState.
		Width(m.chatWidth()).
		Height(m.height - 3).
		Render("\n\n" + m.spin.View())
}

func (m Model) renderComposer() string {
	return m.theme.InputContainer.
		Width(m.chatWidth()).
		Render(m.input.View())
}

func (m Model) chatWidth() int {
	w := m.width - m.opts.RosterWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

// refreshTranscript rebuilds the viewport content from the conversation
// snapshot. When follow is set the view sticks to the newest message.
func (m *Model) refreshTranscript(follow bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcriptContent())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) transcriptContent() string {
	width := m.chatWidth()
	if len(m.conv.Messages) == 0 {
		if m.conv.State == core.ConvOpen {
			return m.theme.EmptyState.Width(width).Render("\nNo messages yet. Say hello!")
		}
		return ""
	}

	now := time.Now()
	var b strings.Builder
	for _, msg := range m.conv.Messages {
		b.WriteString(m.renderMessage(msg, width, now))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders one transcript entry: a meta line and the bubble,
// right-aligned for the user's own messages.
func (m *Model) renderMessage(msg model.Message, width int, now time.Time) string {
	mine := msg.IsMine(m.user.ID)
	bubbleMax := width * 3 / 4

	var label string
	if mine {
		label = "You"
	} else {
		label = m.conv.Counterpart.DisplayName()
	}
	meta := m.theme.SenderLabel.Render(label) + " " +
		m.theme.Timestamp.Render(m.formatClock(msg, now))
	if msg.IsPending() {
		meta += " " + m.theme.PendingMark.Render("…sending")
	}

	style := m.theme.TheirsBubble
	if mine {
		style = m.theme.MineBubble
	}
	bubble := style.MaxWidth(bubbleMax).Render(msg.Content)

	block := meta + "\n" + bubble
	if mine {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block) + "\n"
	}
	return block + "\n"
}

func (m *Model) formatClock(msg model.Message, now time.Time) string {
	if !m.opts.Clock24h {
		return msg.FormatTime(now)
	}
	if msg.CreatedAt.IsZero() {
		return ""
	}
	y1, mo1, d1 := now.Date()
	y2, mo2, d2 := msg.CreatedAt.Date()
	if y1 == y2 && mo1 == mo2 && d1 == d2 {
		return msg.CreatedAt.Format("15:04")
	}
	return msg.FormatTime(now)
}
