// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// theme.go - Terminal theme detection and background configuration.
//
// The config file carries a ui.theme setting ("dark", "light", or "auto").
// Apply resolves it against the detected terminal capabilities and locks
// Lip Gloss background detection so every AdaptiveColor in this package
// picks the matching variant.

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme captures the resolved rendering environment for the TUI.
type Theme struct {
	Name         string          // resolved theme name, "dark" or "light"
	IsDark       bool            // whether styles render against a dark background
	HasTrueColor bool            // whether the terminal supports 24-bit color
	ColorProfile termenv.Profile // detected terminal color profile
}

// Apply resolves the configured theme name and configures Lip Gloss
// background detection to match. Recognized names are "dark", "light",
// and "auto"; anything else falls back to auto-detection.
func Apply(name string) Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	resolved := "light"
	if isDark {
		resolved = "dark"
	}
	return Theme{
		Name:         resolved,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
}
