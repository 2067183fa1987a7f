// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local transcript cache.
//
// The cache is a single SQLite database under the user's config directory.
// It exists to pre-paint conversations instantly while the server round-trip
// for fresh history is in flight; the server copy always wins. Only
// server-confirmed data is written, so the cache never contains pending
// optimistic entries.
package storage
