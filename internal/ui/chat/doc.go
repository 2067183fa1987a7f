// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI: the roster sidebar, the
// transcript pane, and the message composer, wired to the conversation core
// through its notification stream. The view never talks to the realtime
// channel directly; it reads snapshots and issues intents.
package chat
