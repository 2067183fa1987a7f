// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application. It detects the
// terminal's color capability once at startup.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Brand  lipgloss.Style

	// ==========================================================================
	// ROSTER SIDEBAR STYLES
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	RosterItem     lipgloss.Style
	RosterSelected lipgloss.Style
	RosterPreview  lipgloss.Style
	UnreadBadge    lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	MineBubble    lipgloss.Style
	TheirsBubble  lipgloss.Style
	PendingMark   lipgloss.Style
	Timestamp     lipgloss.Style
	EmptyState    lipgloss.Style
	SenderLabel   lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Reconnecting lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// FEEDBACK STYLES
	// ==========================================================================

	ErrorBanner lipgloss.Style
	Spinner     lipgloss.Style
	LoadingText lipgloss.Style
}

// NewTheme creates a theme sized for the given terminal dimensions.
func NewTheme(width, height int) *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
		Width:        width,
		Height:       height,
	}

	t.App = lipgloss.NewStyle().
		Background(Surface)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Padding(0, 1).
		Bold(true)

	t.Brand = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		Padding(0, 1)

	t.RosterItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.RosterSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Teal).
		Padding(0, 1)

	t.RosterPreview = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UnreadBadge = lipgloss.NewStyle().
		Foreground(Orange).
		Bold(true)

	t.MineBubble = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(TealDeep).
		Padding(0, 1)

	t.TheirsBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 1)

	t.PendingMark = lipgloss.NewStyle().
		Foreground(Amber)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SenderLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Center)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.Connected = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Reconnecting = lipgloss.NewStyle().
		Foreground(Amber)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal)

	t.LoadingText = lipgloss.NewStyle().
		Foreground(TextMuted)

	return t
}

// SetSize updates the layout dimensions after a terminal resize.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
