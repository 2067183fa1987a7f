// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI widgets for the Fixonway TUI:
// the loading spinner, the status bar, and the transient error banner.
// Each widget is a small self-contained Bubble Tea model rendered by the
// chat view.
package components
