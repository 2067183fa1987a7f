// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"github.com/fixonway/fixonway-tui/internal/model"
)

// =============================================================================
// EVENT NAMES
// =============================================================================

// Event names on the wire. Outbound events are only ever emitted by the chat
// core; inbound events are delivered to subscribers.
const (
	// Outbound
	EventJoinChat    = "joinChat"    // {userId, otherUserId}
	EventGetMessages = "getMessages" // {chatId}
	EventGetAllChats = "getAllChats" // {userId}
	EventSendMessage = "sendMessage" // Message (pending)

	// Inbound
	EventChatJoined   = "chatJoined"   // {chatId, messages?}
	EventChatMessages = "chatMessages" // {chatId, messages}
	EventAllChats     = "allChats"     // [Chat]
	EventNewMessage   = "newMessage"   // Message (confirmed)
	EventChatError    = "chatError"    // {message}
	EventError        = "error"        // {message}
)

// =============================================================================
// PAYLOAD TYPES
// =============================================================================

// JoinChatPayload requests (or resumes) the conversation between two users.
// Chat identity derives from the participant pair, not a pre-known chat id.
type JoinChatPayload struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

// ChatJoinedPayload confirms a join. Messages may carry the initial history;
// when absent the client requests it explicitly with getMessages.
type ChatJoinedPayload struct {
	ChatID   string          `json:"chatId"`
	Messages []model.Message `json:"messages,omitempty"`
}

// GetMessagesPayload requests the full history for a known chat.
type GetMessagesPayload struct {
	ChatID string `json:"chatId"`
}

// ChatMessagesPayload is the history response, ordered by creation time.
// Some server builds omit the top-level chat id; DerivedChatID falls back
// to the first message so stale-response filtering still works.
type ChatMessagesPayload struct {
	ChatID   string          `json:"chatId,omitempty"`
	Messages []model.Message `json:"messages"`
}

// DerivedChatID returns the chat id the history belongs to.
func (p ChatMessagesPayload) DerivedChatID() string {
	if p.ChatID != "" {
		return p.ChatID
	}
	if len(p.Messages) > 0 {
		return p.Messages[0].ChatID
	}
	return ""
}

// GetAllChatsPayload requests the roster for a user.
type GetAllChatsPayload struct {
	UserID string `json:"userId"`
}

// AllChatsPayload is the roster response, most-recently-active first as
// ordered by the server.
type AllChatsPayload []model.Chat

// ErrorPayload is the generic failure signal for error and chatError.
type ErrorPayload struct {
	Message string `json:"message"`
}
