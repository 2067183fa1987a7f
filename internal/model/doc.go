// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat core and the
// presentation layer: users, chats (conversation headers), and messages.
//
// The types here are deliberately dumb. Protocol behavior (joining, history
// synchronization, optimistic-send reconciliation) lives in internal/chat;
// wire framing lives in internal/realtime. Nothing in this package touches
// the network or the terminal.
package model
