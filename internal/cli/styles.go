// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for CLI command output.
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// init configures the lipgloss color profile: piped output and NO_COLOR
// get plain text.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// GetColorProfile returns the color profile to use for CLI output.
func GetColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" || !IsStdoutTTY() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

var (
	// TitleStyle is used for command titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("36"))

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	// SuccessStyle marks successful outcomes.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// ErrorStyle marks failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)
