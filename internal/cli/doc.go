// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI command
// handlers: authentication, status, configuration, and version output.
//
// Running the binary with no command starts the chat TUI; everything else
// is a one-shot command that prints and exits. Handlers return errors
// rather than calling os.Exit so main owns the exit code.
package cli
