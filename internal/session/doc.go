// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the signed-in identity between runs.
//
// A Session is the minimal identity the client needs: the user record the
// server returned at login plus the bearer token for the realtime channel.
// It is stored as JSON under the user's config directory with 0600
// permissions and written atomically so a crash never leaves a torn file.
//
// # Key Types
//
//   - Session: signed-in identity and token
//   - Store: load/save/clear against the session file
//
// # Usage
//
//	store, _ := session.NewStore("")
//	sess, err := store.Load()
//	if errors.Is(err, session.ErrNotSignedIn) {
//	    // run the login flow
//	}
package session
