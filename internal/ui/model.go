// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - The Bubble Tea model for the interface.
//
// Layout, top to bottom: header, transcript viewport, input area, an
// optional help block, and the status bar. The input area keeps focus
// the whole time; navigation happens through control keys and the mouse
// wheel.

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/components"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
)

// inputLines is the height of the input area in rows, before its border.
const inputLines = 3

// compactInputLines is the input height in compact mode.
const compactInputLines = 1

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	session *chat.Session
	client  *ollama.Client
	cfg     *config.Config

	keys      KeyMap
	viewport  viewport.Model
	input     textarea.Model
	spin      spinner.Model
	statusBar *components.StatusBar
	buffer    *StreamingBuffer

	// liveText is the streamed reply text flushed so far.
	liveText string

	// transcript caches the rendered completed turns.
	transcript string

	width    int
	height   int
	ready    bool
	showHelp bool

	// ticking guards against overlapping stream tick loops.
	ticking bool

	// noticeSeq invalidates expiry timers of replaced notices.
	noticeSeq int

	// turnCancel aborts the in-flight generation.
	turnCancel context.CancelFunc
	turnCtx    context.Context
}

// New creates the interface model around a prepared session.
func New(session *chat.Session, client *ollama.Client, cfg *config.Config) Model {
	inputHeight := inputLines
	if cfg.UI.CompactMode {
		inputHeight = compactInputLines
	}

	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.Prompt = "> "
	ta.CharLimit = 4096
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	// Enter submits; newlines go in with Ctrl+J
	ta.KeyMap.InsertNewline.SetKeys("ctrl+j")
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames render everywhere, 30fps matches the stream flush rate
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = lipgloss.NewStyle().Foreground(styles.Amber)

	bar := components.NewStatusBar()
	bar.SetModel(session.EffectiveModel())
	bar.SetThinking(session.Thinking())
	bar.SetStreamOff(!session.StreamingEnabled())

	return Model{
		session:   session,
		client:    client,
		cfg:       cfg,
		keys:      DefaultKeyMap(),
		viewport:  vp,
		input:     ta,
		spin:      sp,
		statusBar: bar,
		buffer:    NewStreamingBuffer(),
	}
}

// Init starts cursor blinking and the first backend health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		checkHealthCmd(m.client),
		healthTickCmd(),
	)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the full interface.
func (m Model) View() string {
	if !m.ready {
		return waitingStyle.Render("\n  Starting AsiaFeeds AI Assistant...")
	}

	parts := make([]string, 0, 5)
	if !m.cfg.UI.CompactMode {
		parts = append(parts, m.renderHeader())
	}
	parts = append(parts, m.viewport.View())
	parts = append(parts, m.renderInput())
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}
	parts = append(parts, m.statusBar.View())

	return strings.Join(parts, "\n")
}

// renderHeader renders the top title bar.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Render("AsiaFeeds AI Assistant")

	sep := turnMetaStyle.Render(" | ")
	model := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(m.session.EffectiveModel())

	line := " " + title + sep + model
	if m.session.Thinking() {
		line += " " + thinkBadgeStyle.Render("think")
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(m.width).
		Render(line)
}

// renderInput renders the input area with a border that signals whether
// a prompt can be submitted right now.
func (m Model) renderInput() string {
	borderColor := styles.Cyan
	if m.session.InFlight() {
		borderColor = styles.OverlayDim
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(m.width - 2).
		Render(m.input.View())
}

// renderHelp renders the key binding and command reference block.
func (m Model) renderHelp() string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.Cyan)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	segments := make([]string, 0, 10)
	for _, b := range m.keys.HelpEntries() {
		h := b.Help()
		segments = append(segments, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Desc))
	}
	keysLine := strings.Join(segments, descStyle.Render("  -  "))

	commandsLine := descStyle.Render(
		"Commands: /model NAME, /think, /stream, /clear, /status, /quit  -  Ctrl+J inserts a newline")

	return lipgloss.NewStyle().
		Width(m.width).
		PaddingLeft(1).
		Render(keysLine + "\n" + commandsLine)
}

// =============================================================================
// LAYOUT
// =============================================================================

// handleResize recomputes the layout after a terminal size change.
func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	if msg.Width <= 0 || msg.Height <= 0 {
		return m, nil
	}

	m.width = msg.Width
	m.height = msg.Height

	m.statusBar.SetWidth(msg.Width)
	m.input.SetWidth(msg.Width - 4)

	headerHeight := 1
	if m.cfg.UI.CompactMode {
		headerHeight = 0
	}
	inputHeight := m.input.Height() + 2 // border rows
	statusHeight := 1
	if msg.Width >= 60 {
		statusHeight = 2 // wide layout adds a top border
	}
	helpHeight := 0
	if m.showHelp {
		helpHeight = lipgloss.Height(m.renderHelp())
	}

	viewportHeight := msg.Height - headerHeight - inputHeight - statusHeight - helpHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight
	m.ready = true

	m.rebuildTranscript()
	m.refreshViewport()

	return m, nil
}

// contentWidth is the wrap width for transcript content.
func (m Model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// VIEWPORT CONTENT
// =============================================================================

// rebuildTranscript re-renders the completed turns into the cache. The
// last history entry is the live turn while one is in flight, so it is
// excluded here and rendered separately.
func (m *Model) rebuildTranscript() {
	turns := m.session.History()
	if _, ok := m.session.Live(); ok && len(turns) > 0 {
		turns = turns[:len(turns)-1]
	}
	m.transcript = renderTranscript(turns, m.contentWidth())
}

// refreshViewport rebuilds the viewport content from the cached
// transcript and the live turn, keeping the scroll pinned to the bottom
// when it already was there.
func (m *Model) refreshViewport() {
	content := m.transcript

	if live, ok := m.session.Live(); ok {
		if content != "" {
			content += "\n\n"
		}
		content += renderLiveTurn(live, m.liveText, m.contentWidth(), m.spin.View())
	} else if content == "" {
		content = renderWelcome(m.contentWidth(), m.session.EffectiveModel())
	}

	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)
	if wasAtBottom {
		m.viewport.GotoBottom()
	}
}
