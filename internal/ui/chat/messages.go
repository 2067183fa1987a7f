// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/fixonway/fixonway-tui/internal/chat"
)

// =============================================================================
// CORE BRIDGE MESSAGES
// =============================================================================

// NoticeMsg carries a change notification from the conversation core into
// the Bubble Tea update loop.
type NoticeMsg struct {
	Notice core.Notice
}

// NoticesClosedMsg signals that the core shut down its notification stream.
type NoticesClosedMsg struct{}

// ConfigReloadedMsg carries freshly reloaded UI settings from the config
// file watcher.
type ConfigReloadedMsg struct {
	RosterWidth int
	Clock24h    bool
}

// waitForNotice blocks on the core's notification stream and converts the
// next notice into a message. The update loop re-issues it after every
// receipt.
func waitForNotice(ch <-chan core.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return NoticesClosedMsg{}
		}
		return NoticeMsg{Notice: n}
	}
}
