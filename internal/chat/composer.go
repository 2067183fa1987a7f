// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "strings"

// Composer holds per-conversation draft text so switching chats does not
// lose what the user was typing. Drafts live in memory only.
type Composer struct {
	drafts map[string]string
}

// Draft returns the saved draft for a chat, or "".
func (c *Composer) Draft(chatID string) string {
	return c.drafts[chatID]
}

// SetDraft stores the current input for a chat. An empty draft is removed.
func (c *Composer) SetDraft(chatID, text string) {
	if chatID == "" {
		return
	}
	if text == "" {
		delete(c.drafts, chatID)
		return
	}
	if c.drafts == nil {
		c.drafts = map[string]string{}
	}
	c.drafts[chatID] = text
}

// Submit trims the draft for a chat, clears it, and returns the text ready
// to send. Returns "" (and clears nothing) when the draft is blank.
func (c *Composer) Submit(chatID string) string {
	text := strings.TrimSpace(c.drafts[chatID])
	if text == "" {
		return ""
	}
	delete(c.drafts, chatID)
	return text
}
