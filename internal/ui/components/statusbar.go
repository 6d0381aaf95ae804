// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the AsiaFeeds TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom bar with generation state and backend health
// =============================================================================

// Status represents the current generation state
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar. It shows the generation state, the
// active model, the thinking-mode badge, and whether the backend answered
// the last health probe.
type StatusBar struct {
	Width     int    // Available width
	Status    Status // Current generation state
	Model     string // Active model name
	Thinking  bool   // Thinking mode enabled
	StreamOff bool   // Streaming disabled for this session
	Message   string // Transient notice, replaces the center section

	healthy     bool
	healthKnown bool
}

// NewStatusBar creates a status bar with defaults.
func NewStatusBar() *StatusBar {
	return &StatusBar{
		Width:  80,
		Status: StatusReady,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the generation state
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetModel updates the displayed model name
func (s *StatusBar) SetModel(name string) {
	s.Model = name
}

// SetThinking toggles the thinking-mode badge
func (s *StatusBar) SetThinking(on bool) {
	s.Thinking = on
}

// SetStreamOff marks streaming as disabled for this session
func (s *StatusBar) SetStreamOff(off bool) {
	s.StreamOff = off
}

// SetMessage sets a transient notice shown in the center section.
// An empty string clears it.
func (s *StatusBar) SetMessage(msg string) {
	s.Message = msg
}

// SetHealth records the result of the latest backend health probe
func (s *StatusBar) SetHealth(reachable bool) {
	s.healthy = reachable
	s.healthKnown = true
}

// View renders the status bar for the current width
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals
// Format: [icon] model health
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.getStatusStyle().Render(s.Status.Icon())}

	if s.Model != "" {
		name := runewidth.Truncate(s.Model, 18, "...")
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(name))
	}

	parts = append(parts, s.renderHealth(false))

	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" ")
	result := strings.Join(parts, separator)

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewWide renders the full status bar
// Format: model | THINK | stream off    notice    Ready [OK] | backend [*]
func (s *StatusBar) viewWide() string {
	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	// Left section: model and mode badges
	leftParts := []string{}
	if s.Model != "" {
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		leftParts = append(leftParts, modelStyle.Render(s.Model))
	}
	if s.Thinking {
		thinkBadge := lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true).
			Render("THINK")
		leftParts = append(leftParts, thinkBadge)
	}
	if s.StreamOff {
		streamNote := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("stream off")
		leftParts = append(leftParts, streamNote)
	}
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: transient notice
	var centerSection string
	if s.Message != "" {
		centerSection = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(s.Message)
	}

	// Right section: generation state and backend health
	statusText := s.getStatusStyle().Render(s.Status.String() + " " + s.Status.Icon())
	rightSection := statusText + leftSep + s.renderHealth(true)

	// Calculate spacing
	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}
	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// renderHealth renders the backend reachability indicator.
// ACCESSIBILITY: Shape indicators pair with color so state reads without it.
func (s *StatusBar) renderHealth(withLabel bool) string {
	var style lipgloss.Style
	var icon, label string

	switch {
	case !s.healthKnown:
		style = lipgloss.NewStyle().Foreground(styles.TextMuted)
		icon = styles.StatusIndicators.Pending
		label = "backend"
	case s.healthy:
		style = lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
		icon = styles.StatusIndicators.Active
		label = "backend"
	default:
		style = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
		icon = styles.StatusIndicators.Error
		label = "offline"
	}

	if withLabel {
		return style.Render(label + " " + icon)
	}
	return style.Render(icon)
}

// getStatusStyle returns the style for the current generation state
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.Emerald)
	case StatusThinking:
		return lipgloss.NewStyle().Foreground(styles.Amber)
	case StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.Cyan)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextSecondary)
	}
}
