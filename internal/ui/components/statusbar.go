// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fixonway/fixonway-tui/internal/realtime"
	"github.com/fixonway/fixonway-tui/internal/ui/styles"
	"github.com/fixonway/fixonway-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is a key hint rendered at the right edge of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom line: identity, connection state, unread
// count, and key hints.
type StatusBar struct {
	theme *styles.Theme

	userName  string
	transport realtime.State
	unread    int
	shortcuts []Shortcut
}

// NewStatusBar creates a status bar for the signed-in user.
func NewStatusBar(theme *styles.Theme, userName string) StatusBar {
	return StatusBar{
		theme:     theme,
		userName:  userName,
		transport: realtime.StateConnecting,
	}
}

// SetTransport updates the connection indicator.
func (b *StatusBar) SetTransport(state realtime.State) {
	b.transport = state
}

// SetUnread updates the unread conversation count.
func (b *StatusBar) SetUnread(n int) {
	b.unread = n
}

// SetShortcuts replaces the key hints.
func (b *StatusBar) SetShortcuts(shortcuts []Shortcut) {
	b.shortcuts = shortcuts
}

// View renders the bar at the given width.
func (b StatusBar) View(width int) string {
	left := b.userName
	if b.unread > 0 {
		left += fmt.Sprintf("  %d unread", b.unread)
	}

	var conn string
	switch b.transport {
	case realtime.StateConnected:
		conn = b.theme.Connected.Render("● online")
	case realtime.StateConnecting, realtime.StateDisconnected:
		conn = b.theme.Reconnecting.Render("◌ reconnecting")
	default:
		conn = b.theme.LoadingText.Render("○ offline")
	}

	var hints []string
	for _, sc := range b.shortcuts {
		hints = append(hints,
			b.theme.ShortcutKey.Render(sc.Key)+" "+b.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := conn
	if len(hints) > 0 {
		right = strings.Join(hints, "  ") + "  " + conn
	}

	left = util.TruncateWidth(left, width/2)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return b.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
