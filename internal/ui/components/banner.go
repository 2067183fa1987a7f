// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fixonway/fixonway-tui/internal/ui/styles"
	"github.com/fixonway/fixonway-tui/internal/util"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// DefaultBannerTTL is how long an error stays on screen without being
// dismissed explicitly.
const DefaultBannerTTL = 6 * time.Second

// BannerExpiredMsg dismisses a banner whose display time is up. The
// generation guards against a newer banner being dismissed by an older
// banner's timer.
type BannerExpiredMsg struct {
	Generation int
}

// ErrorBanner shows the most recent error as a transient one-line overlay.
type ErrorBanner struct {
	theme      *styles.Theme
	message    string
	generation int
	ttl        time.Duration
}

// NewErrorBanner creates an empty banner.
func NewErrorBanner(theme *styles.Theme) ErrorBanner {
	return ErrorBanner{theme: theme, ttl: DefaultBannerTTL}
}

// Show replaces the banner content and returns the expiry command.
func (b *ErrorBanner) Show(message string) tea.Cmd {
	b.message = message
	b.generation++
	gen := b.generation
	return tea.Tick(b.ttl, func(time.Time) tea.Msg {
		return BannerExpiredMsg{Generation: gen}
	})
}

// Dismiss clears the banner immediately.
func (b *ErrorBanner) Dismiss() {
	b.message = ""
}

// Update handles expiry messages.
func (b *ErrorBanner) Update(msg tea.Msg) {
	if m, ok := msg.(BannerExpiredMsg); ok && m.Generation == b.generation {
		b.message = ""
	}
}

// Visible reports whether the banner has content.
func (b ErrorBanner) Visible() bool {
	return b.message != ""
}

// View renders the banner at the given width, or "" when hidden.
func (b ErrorBanner) View(width int) string {
	if b.message == "" {
		return ""
	}
	return b.theme.ErrorBanner.Width(width).Render(util.TruncateWidth(b.message, width-2))
}
