// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: all truncation here is rune- and width-aware. Roster previews and
// the status bar render into fixed-width cells, and chopping a multi-byte
// character mid-sequence corrupts the terminal output.

// TruncateWidth truncates a string to a maximum display width, accounting
// for double-width (CJK) characters with go-runewidth.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	head := runewidth.Truncate(s, maxWidth-3, "")
	if head == "" {
		// A double-width first rune leaves no room for the ellipsis.
		return runewidth.Truncate(s, maxWidth, "")
	}
	return head + "..."
}

// PadWidth pads a string with spaces to an exact display width, truncating
// first if it is too long.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

// FirstLine returns the content up to the first newline, with surrounding
// whitespace trimmed. Used for single-line roster previews.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
