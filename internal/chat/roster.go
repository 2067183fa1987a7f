// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/fixonway/fixonway-tui/internal/model"
)

// =============================================================================
// ROSTER
// =============================================================================

// Roster maintains the ordered conversation list for the current user,
// most-recently-active first. At most one entry exists per chat id; joins
// and activity for a known chat promote the existing entry instead of
// inserting a duplicate.
//
// Roster is not goroutine-safe; the owning Service serializes access.
type Roster struct {
	chats []model.Chat
}

// Replace swaps in the server's roster response wholesale. Order is taken
// as returned by the server; the client does not re-sort at load time.
func (r *Roster) Replace(chats []model.Chat) {
	r.chats = make([]model.Chat, 0, len(chats))
	seen := make(map[string]bool, len(chats))
	for _, c := range chats {
		if c.ChatID == "" || seen[c.ChatID] {
			continue
		}
		seen[c.ChatID] = true
		r.chats = append(r.chats, c)
	}
}

// Activity records a message on a chat: the entry moves to the front, takes
// the message as its preview, and is flagged unread unless the chat is the
// one the user is looking at. Unknown chats get a new header built from the
// triggering message.
func (r *Roster) Activity(msg model.Message, isActive bool) {
	i := r.index(msg.ChatID)
	if i < 0 {
		m := msg
		r.prepend(model.Chat{
			ChatID:      msg.ChatID,
			Counterpart: model.User{ID: msg.SenderID},
			LastMessage: &m,
			Unread:      !isActive,
		})
		return
	}

	entry := r.chats[i]
	m := msg
	entry.LastMessage = &m
	if !isActive {
		entry.Unread = true
	}
	r.promote(i, entry)
}

// Joined records a join confirmation. A known chat id is promoted to the
// front; an unknown one is inserted there. Either way the entry is read:
// it is the conversation the user is actively opening.
func (r *Roster) Joined(chatID string, counterpart model.User) {
	i := r.index(chatID)
	if i < 0 {
		r.prepend(model.Chat{
			ChatID:      chatID,
			Counterpart: counterpart,
			Unread:      false,
		})
		return
	}

	entry := r.chats[i]
	entry.Unread = false
	if entry.Counterpart.IsZero() || entry.Counterpart.FullName == "" && counterpart.FullName != "" {
		// A header synthesized from a bare message event only knows the
		// sender id; the join carries the full counterpart.
		entry.Counterpart = counterpart
	}
	r.promote(i, entry)
}

// MarkRead clears the unread flag on a chat, if present.
func (r *Roster) MarkRead(chatID string) {
	if i := r.index(chatID); i >= 0 {
		r.chats[i].Unread = false
	}
}

// Find returns the entry with the given chat id, or nil.
func (r *Roster) Find(chatID string) *model.Chat {
	if i := r.index(chatID); i >= 0 {
		c := r.chats[i]
		return &c
	}
	return nil
}

// FindByCounterpart returns the entry whose counterpart has the given user
// id, or nil. Used to resume an existing conversation without a join
// round-trip.
func (r *Roster) FindByCounterpart(userID string) *model.Chat {
	for i := range r.chats {
		if r.chats[i].Counterpart.ID == userID {
			c := r.chats[i]
			return &c
		}
	}
	return nil
}

// Chats returns a copy of the ordered list.
func (r *Roster) Chats() []model.Chat {
	out := make([]model.Chat, len(r.chats))
	copy(out, r.chats)
	return out
}

// Len returns the number of conversations.
func (r *Roster) Len() int {
	return len(r.chats)
}

// UnreadCount returns the number of conversations flagged unread.
func (r *Roster) UnreadCount() int {
	n := 0
	for i := range r.chats {
		if r.chats[i].Unread {
			n++
		}
	}
	return n
}

// index returns the position of a chat id, or -1.
func (r *Roster) index(chatID string) int {
	for i := range r.chats {
		if r.chats[i].ChatID == chatID {
			return i
		}
	}
	return -1
}

// promote moves the entry at i to the front, preserving the relative order
// of everything else.
func (r *Roster) promote(i int, entry model.Chat) {
	copy(r.chats[1:i+1], r.chats[:i])
	r.chats[0] = entry
}

// prepend inserts a new entry at the front.
func (r *Roster) prepend(entry model.Chat) {
	r.chats = append(r.chats, model.Chat{})
	copy(r.chats[1:], r.chats)
	r.chats[0] = entry
}
