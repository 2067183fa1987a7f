// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the Fixonway TUI.
//
// All colors use Lip Gloss AdaptiveColor so the palette adjusts to light
// and dark terminals automatically. The Theme type bundles every styled
// component; views hold a *Theme and never construct ad-hoc styles.
package styles
