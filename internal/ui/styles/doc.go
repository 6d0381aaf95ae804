// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the AsiaFeeds TUI.

This package defines the color palette and theme resolution used throughout
the application. All colors use Lip Gloss AdaptiveColor for automatic
light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant replies and selections
  - Cyan - Brand color for info, commands, and user highlights
  - Emerald - Success states and backend reachable indicator
  - Amber - Warnings and the thinking-mode badge
  - Rose - Errors and failed generations

## Surface Colors

Layered surface system for depth:

	Surface    - Main background
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders and dividers

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

## Status Indicators

ASCII indicators paired with high-contrast colors so state reads
without color:

	StatusIndicators.Success - [OK]
	StatusIndicators.Error   - [X]
	StatusIndicators.Warning - [!]
	StatusIndicators.Active  - [*]

# Theme System (theme.go)

Apply resolves the configured ui.theme value and locks background
detection for the whole palette:

	theme := styles.Apply(cfg.UI.Theme)
	if theme.IsDark {
		// Dark variants selected
	}

# Usage Example

	import "github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"

	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	fmt.Println(styles.RenderSuccess("backend reachable"))
*/
package styles
