// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package realtime implements the bidirectional event channel between the
// client and the Fixonway server.
//
// One physical connection is established per application lifetime and shared
// by the roster manager and the active-conversation controller. The channel
// exposes emit/subscribe semantics over a JSON event envelope; reconnection
// after network loss is handled here, not by the chat logic.
//
// Channel is an interface so the chat core can be driven by the in-memory
// Bus in tests instead of a live websocket.
package realtime
