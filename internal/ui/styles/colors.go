// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// BRAND COLORS
// =============================================================================

// Teal - Primary brand accent, selections, own messages
var Teal = lipgloss.AdaptiveColor{Light: "#0D9488", Dark: "#2DD4BF"}

// TealDeep - Darker teal for backgrounds
var TealDeep = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#134E4A"}

// Orange - Secondary accent, unread badges, calls to action
var Orange = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors and failed states
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, pending delivery, reconnecting
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Emerald - Success, connected state
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1C28"}

// SurfaceDim - Headers, footers, sidebar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#16161E"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#2E2E3E"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#D4D4E4"}

// TextSecondary - Labels, counterpart names
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A0A0B8"}

// TextMuted - Timestamps, hints, placeholders
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C6C84"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#16161E"}
