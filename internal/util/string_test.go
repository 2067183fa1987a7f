// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "testing"

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"zero width", "hello", 0, ""},
		{"tiny width", "hello", 2, "he"},
		{"cjk double width", "你好世界", 4, "你好"},
		{"cjk with ellipsis room", "你好世界", 5, "你..."},
		{"cjk no room for tail", "你好世界", 3, "你"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWidth(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("hi", 5); got != "hi   " {
		t.Errorf("PadWidth = %q, want %q", got, "hi   ")
	}
	// Double-width runes count as two cells.
	if got := PadWidth("你", 4); got != "你  " {
		t.Errorf("PadWidth = %q, want %q", got, "你  ")
	}
	if got := PadWidth("too long here", 7); got != "too ..." {
		t.Errorf("PadWidth = %q, want %q", got, "too ...")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"single", "single"},
		{"first\nsecond", "first"},
		{"  padded  \nrest", "padded"},
		{"", ""},
		{"\nleading newline", ""},
	}

	for _, tt := range tests {
		if got := FirstLine(tt.input); got != tt.want {
			t.Errorf("FirstLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
