// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fixonway/fixonway-tui/internal/ui/styles"
)

// =============================================================================
// LOADING SPINNER
// =============================================================================

// Spinner is a labeled loading indicator shown while a join or history
// request is in flight.
type Spinner struct {
	inner spinner.Model
	label string
	theme *styles.Theme
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(theme *styles.Theme, label string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.Spinner
	return Spinner{inner: s, label: label, theme: theme}
}

// SetLabel changes the text next to the spinner.
func (s *Spinner) SetLabel(label string) {
	s.label = label
}

// Tick starts the spinner animation.
func (s Spinner) Tick() tea.Cmd {
	return s.inner.Tick
}

// Update advances the animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.inner, cmd = s.inner.Update(msg)
	return s, cmd
}

// View renders the spinner with its label.
func (s Spinner) View() string {
	if s.label == "" {
		return s.inner.View()
	}
	return s.inner.View() + " " + s.theme.LoadingText.Render(s.label)
}
