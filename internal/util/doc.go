// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the client: width-aware
// string truncation for terminal rendering and atomic file writes for the
// session and config stores.
package util
