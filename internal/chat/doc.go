// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the client-side chat core: the roster manager, the
// active-conversation controller, and the message composer.
//
// The controller is a small state machine (Idle, Joining, LoadingHistory,
// Open) driven by two sources that share one event loop: user actions from
// the UI and inbound events from the realtime channel. The transport does
// not guarantee that responses arrive in request order, so every inbound
// event is validated against the current active chat before it is applied;
// responses for a chat the user has switched away from are discarded.
//
// The trickiest invariant lives in Transcript: a locally sent message is
// shown immediately in pending state and must collapse into the server's
// broadcast echo rather than duplicate it. The server does not echo the
// client's temporary id, so reconciliation matches by sender, chat, content,
// and a time window. See Transcript.Reconcile.
//
// Nothing in this package imports the UI; the Service publishes change
// notices on a channel and exposes snapshot accessors.
package chat
