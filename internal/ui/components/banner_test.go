// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/fixonway/fixonway-tui/internal/ui/styles"
)

func TestErrorBannerLifecycle(t *testing.T) {
	b := NewErrorBanner(styles.NewTheme(80, 24))
	if b.Visible() {
		t.Error("new banner should be hidden")
	}

	cmd := b.Show("connection lost")
	if cmd == nil {
		t.Fatal("Show should return an expiry command")
	}
	if !b.Visible() {
		t.Error("banner should be visible after Show")
	}
	if !strings.Contains(b.View(80), "connection lost") {
		t.Errorf("View() = %q", b.View(80))
	}

	b.Update(BannerExpiredMsg{Generation: 1})
	if b.Visible() {
		t.Error("banner should be dismissed by its own expiry")
	}
}

func TestErrorBannerStaleExpiryIgnored(t *testing.T) {
	b := NewErrorBanner(styles.NewTheme(80, 24))
	b.Show("first")
	b.Show("second")

	// The first banner's timer fires after the second banner replaced it.
	b.Update(BannerExpiredMsg{Generation: 1})
	if !b.Visible() {
		t.Error("a stale expiry must not dismiss a newer banner")
	}

	b.Update(BannerExpiredMsg{Generation: 2})
	if b.Visible() {
		t.Error("the current expiry should dismiss the banner")
	}
}

func TestErrorBannerDismiss(t *testing.T) {
	b := NewErrorBanner(styles.NewTheme(80, 24))
	b.Show("oops")
	b.Dismiss()
	if b.Visible() || b.View(80) != "" {
		t.Error("Dismiss should clear the banner")
	}
}
