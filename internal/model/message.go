// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixonway/fixonway-tui/internal/util"
)

// =============================================================================
// DELIVERY STATE
// =============================================================================

// DeliveryState tracks whether a message has been confirmed by the server.
type DeliveryState int

const (
	// DeliveryPending is an optimistic local entry awaiting the server echo.
	DeliveryPending DeliveryState = iota
	// DeliveryConfirmed is a server-acknowledged message.
	DeliveryConfirmed
)

// String returns the string representation of the delivery state.
func (s DeliveryState) String() string {
	switch s {
	case DeliveryPending:
		return "pending"
	case DeliveryConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// tempIDPrefix marks client-generated ids. The server does not echo these
// back, so reconciliation cannot rely on them (see chat.Controller).
const tempIDPrefix = "tmp_"

// Message is a single chat message, either received from the server or
// created locally by an optimistic send.
type Message struct {
	ID        string        `json:"_id"`
	ChatID    string        `json:"chatId"`
	SenderID  string        `json:"sender"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	Delivery  DeliveryState `json:"-"`
}

// NewPendingMessage creates an optimistic local message with a generated
// temporary id. It is shown immediately and reconciled when the server echo
// arrives.
func NewPendingMessage(chatID, senderID, content string) Message {
	return Message{
		ID:        tempIDPrefix + uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
		Delivery:  DeliveryPending,
	}
}

// IsPending reports whether the message is still awaiting confirmation.
func (m Message) IsPending() bool {
	return m.Delivery == DeliveryPending
}

// IsMine reports whether the message was sent by the given user.
func (m Message) IsMine(userID string) bool {
	return userID != "" && m.SenderID == userID
}

// HasTempID reports whether the id was generated client-side.
func (m Message) HasTempID() bool {
	return len(m.ID) > len(tempIDPrefix) && m.ID[:len(tempIDPrefix)] == tempIDPrefix
}

// Preview returns a single-line, width-bounded preview of the content for
// the roster sidebar.
func (m Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.FirstLine(m.Content), maxWidth)
}

// FormatTime renders the timestamp the way the roster and transcript show it:
// clock time for today, date otherwise.
func (m Message) FormatTime(now time.Time) string {
	if m.CreatedAt.IsZero() {
		return ""
	}
	y1, mo1, d1 := now.Date()
	y2, mo2, d2 := m.CreatedAt.Date()
	if y1 == y2 && mo1 == mo2 && d1 == d2 {
		return m.CreatedAt.Format("3:04 PM")
	}
	if y1 == y2 {
		return m.CreatedAt.Format("Jan 2")
	}
	return m.CreatedAt.Format("Jan 2 2006")
}

// =============================================================================
// CHAT (ROSTER HEADER)
// =============================================================================

// Chat is a conversation header as shown in the roster: the counterpart, the
// last message preview, and the unread flag. At most one Chat exists per
// counterpart pair; internal/chat enforces that invariant.
type Chat struct {
	ChatID      string   `json:"chatId"`
	Counterpart User     `json:"counterpart"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	Unread      bool     `json:"unread"`
}

// Title returns the roster display name for the chat.
func (c Chat) Title() string {
	return c.Counterpart.DisplayName()
}

// PreviewLine returns the last-message preview, or a placeholder for a chat
// with no messages yet.
func (c Chat) PreviewLine(maxWidth int) string {
	if c.LastMessage == nil {
		return "No messages yet"
	}
	return c.LastMessage.Preview(maxWidth)
}
