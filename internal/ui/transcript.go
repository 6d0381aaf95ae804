// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcript.go - Rendering of the conversation transcript.
//
// Completed turns render once and are cached by the model; the live turn
// re-renders on every buffered flush. Fenced code blocks get syntax
// highlighting only after the turn completes, because re-highlighting a
// half-received fence on every flush is wasteful and visually unstable.

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/components"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT STYLES
// =============================================================================

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)

	turnMetaStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	thinkBadgeStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	promptBodyStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	errorBodyStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	waitingStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	welcomeTitleStyle = lipgloss.NewStyle().
				Foreground(styles.Purple).
				Bold(true)

	welcomeTextStyle = lipgloss.NewStyle().
				Foreground(styles.TextSecondary)

	welcomeHintStyle = lipgloss.NewStyle().
				Foreground(styles.TextMuted)
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderTranscript renders completed turns, oldest first, separated by
// blank lines.
func renderTranscript(turns []chat.Turn, width int) string {
	if len(turns) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(turns))
	for _, t := range turns {
		rendered = append(rendered, renderTurn(t, width))
	}
	return strings.Join(rendered, "\n\n")
}

// renderTurn renders one completed prompt/response exchange.
func renderTurn(t chat.Turn, width int) string {
	bodyWidth := bodyWidthFor(width)
	var b strings.Builder

	b.WriteString(renderUserHeader(t))
	b.WriteString("\n")
	b.WriteString(indentBody(promptBodyStyle.Width(bodyWidth).Render(t.Prompt)))
	b.WriteString("\n")
	b.WriteString(renderAssistantHeader(t))
	b.WriteString("\n")

	switch t.Status {
	case chat.StatusErrored:
		story := styles.StatusIndicators.Error + " " + t.Response
		b.WriteString(indentBody(errorBodyStyle.Width(bodyWidth).Render(story)))
	default:
		b.WriteString(indentBody(renderReplyBody(t.Response, bodyWidth)))
	}

	return b.String()
}

// renderUserHeader renders the "You" label with the turn timestamp.
func renderUserHeader(t chat.Turn) string {
	header := userLabelStyle.Render("You")
	if !t.CreatedAt.IsZero() {
		header += " " + turnMetaStyle.Render(t.CreatedAt.Format("15:04"))
	}
	return header
}

// renderAssistantHeader renders the assistant label with the model that
// produced the reply and the thinking badge when it applies.
func renderAssistantHeader(t chat.Turn) string {
	header := assistantLabelStyle.Render("AsiaFeeds")
	if t.Model != "" {
		header += " " + turnMetaStyle.Render(t.Model)
	}
	if t.ThinkingMode {
		header += " " + thinkBadgeStyle.Render("think")
	}
	return header
}

// renderReplyBody renders a completed reply. Replies with fenced code
// blocks go through the chroma renderer; plain replies get inline code
// styling and word wrapping.
func renderReplyBody(text string, width int) string {
	if strings.Contains(text, "```") {
		return components.ParseCodeBlocks(text, width)
	}

	styled := components.ParseInlineCode(text)
	return lipgloss.NewStyle().Width(width).Render(styled)
}

// renderLiveTurn renders the in-flight turn. Before the first delta it
// shows a spinner; afterwards it shows the text flushed so far, without
// highlighting.
func renderLiveTurn(t chat.Turn, liveText string, width int, spinnerFrame string) string {
	bodyWidth := bodyWidthFor(width)
	var b strings.Builder

	b.WriteString(renderUserHeader(t))
	b.WriteString("\n")
	b.WriteString(indentBody(promptBodyStyle.Width(bodyWidth).Render(t.Prompt)))
	b.WriteString("\n")
	b.WriteString(renderAssistantHeader(t))
	b.WriteString("\n")

	if liveText == "" {
		b.WriteString(indentBody(waitingStyle.Render(spinnerFrame + " thinking...")))
	} else {
		body := lipgloss.NewStyle().Width(bodyWidth).Render(liveText)
		b.WriteString(indentBody(body))
	}

	return b.String()
}

// bodyWidthFor returns the wrap width for an indented body.
func bodyWidthFor(width int) int {
	w := width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// indentBody indents a rendered body block under its label.
func indentBody(body string) string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(body)
}

// =============================================================================
// WELCOME BANNER
// =============================================================================

// renderWelcome renders the empty-conversation banner.
func renderWelcome(width int, model string) string {
	lines := []string{
		"",
		welcomeTitleStyle.Render("AsiaFeeds AI Assistant"),
		welcomeTextStyle.Render("Chat with local models from your terminal."),
		"",
		welcomeHintStyle.Render("Model: " + model),
		welcomeHintStyle.Render("Enter sends your prompt. F1 shows keys. /help lists commands."),
	}

	return lipgloss.NewStyle().
		Width(width).
		PaddingLeft(2).
		Render(strings.Join(lines, "\n"))
}
