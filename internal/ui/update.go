// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Message handling for the interface.
//
// The generation loop: Submit starts a turn, then advanceCmd steps it.
// Every advanceMsg decides whether to chain the next step, so exactly
// one advance runs at a time and the UI thread never blocks on the
// backend.

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/components"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case advanceMsg:
		return m.handleAdvance(msg.instr)

	case streamTickMsg:
		return m.handleStreamTick()

	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)

	case healthMsg:
		m.statusBar.SetHealth(msg.reachable)
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(checkHealthCmd(m.client), healthTickCmd())

	case configReloadedMsg:
		return m.handleConfigReload(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.statusBar.SetMessage("")
		}
		return m, nil
	}

	// Everything else (cursor blinks and the like) goes to the input
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes key presses. Bound keys are intercepted before the
// input area sees them.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.turnCancel != nil {
			m.turnCancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Cancel):
		return m.handleCancel()

	case key.Matches(msg, m.keys.Clear):
		return m.handleClear()

	case key.Matches(msg, m.keys.ToggleThink):
		return m.handleToggleThinking()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		// The help block changes the viewport height
		return m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.ScrollTop):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.ScrollBottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMISSION
// =============================================================================

// handleSubmit submits the input area content as a prompt or runs it as
// a slash command.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleSlashCommand(text)
	}

	if !m.session.Submit(text) {
		return m, m.notice("a reply is still in flight")
	}

	m.input.Reset()
	m.liveText = ""
	m.buffer.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	m.turnCtx = ctx
	m.turnCancel = cancel

	m.statusBar.SetStatus(components.StatusThinking)
	m.rebuildTranscript()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(advanceCmd(m.session, ctx), m.spin.Tick)
}

// handleCancel aborts the in-flight generation, if any.
func (m Model) handleCancel() (tea.Model, tea.Cmd) {
	if !m.session.InFlight() || m.turnCancel == nil {
		return m, nil
	}

	// The cancelled context fails the advance step in flight; the
	// resulting error instruction finishes the turn.
	m.turnCancel()
	m.turnCancel = nil
	return m, m.notice("cancelling...")
}

// handleClear wipes the conversation.
func (m Model) handleClear() (tea.Model, tea.Cmd) {
	if m.turnCancel != nil {
		m.turnCancel()
		m.turnCancel = nil
	}

	m.session.ClearHistory()
	m.buffer.Reset()
	m.liveText = ""
	m.ticking = false
	m.statusBar.SetStatus(components.StatusReady)

	m.rebuildTranscript()
	m.refreshViewport()
	m.viewport.GotoTop()

	return m, m.notice("conversation cleared")
}

// handleToggleThinking flips thinking mode for the next submission.
func (m Model) handleToggleThinking() (tea.Model, tea.Cmd) {
	on := !m.session.Thinking()
	m.session.SetThinking(on)
	m.statusBar.SetThinking(on)
	m.statusBar.SetModel(m.session.EffectiveModel())

	if on {
		return m, m.notice("thinking mode on")
	}
	return m, m.notice("thinking mode off")
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a /command typed into the input area.
func (m Model) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h", "/?":
		m.showHelp = !m.showHelp
		return m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})

	case "/clear", "/c":
		return m.handleClear()

	case "/model", "/m":
		if len(args) == 0 {
			return m, m.notice("model: " + m.session.EffectiveModel())
		}
		m.session.SetModel(args[0])
		m.statusBar.SetModel(m.session.EffectiveModel())
		return m, m.notice("model set to " + m.session.EffectiveModel())

	case "/think", "/t":
		return m.handleToggleThinking()

	case "/stream":
		on := !m.session.StreamingEnabled()
		m.session.SetStreaming(on)
		m.statusBar.SetStreamOff(!on)
		if on {
			return m, m.notice("streaming on")
		}
		return m, m.notice("streaming off")

	case "/status", "/s":
		return m, m.notice(fmt.Sprintf("model %s, backend %s",
			m.session.EffectiveModel(), m.cfg.Backend.URL))

	case "/quit", "/q", "/exit":
		if m.turnCancel != nil {
			m.turnCancel()
		}
		return m, tea.Quit

	default:
		return m, m.notice("unknown command " + cmd + " (try /help)")
	}
}

// =============================================================================
// GENERATION LOOP
// =============================================================================

// handleAdvance reacts to one completed advance step.
func (m Model) handleAdvance(instr chat.RenderInstruction) (tea.Model, tea.Cmd) {
	switch instr.Kind {
	case chat.RenderStarted:
		m.statusBar.SetStatus(components.StatusStreaming)
		cmds := []tea.Cmd{advanceCmd(m.session, m.turnCtx)}
		if !m.ticking {
			m.ticking = true
			cmds = append(cmds, streamTickCmd())
		}
		return m, tea.Batch(cmds...)

	case chat.RenderDelta:
		m.buffer.Write(instr.Delta)
		return m, advanceCmd(m.session, m.turnCtx)

	case chat.RenderComplete:
		return m.finishTurn(components.StatusReady, nil)

	case chat.RenderError:
		return m.finishTurn(components.StatusError, m.notice("generation failed"))
	}

	// RenderNone: the turn was orphaned by a clear, nothing to do
	return m, nil
}

// finishTurn finalizes the live turn display. The full response text is
// in the history now, so the buffered live view is discarded and the
// transcript rebuilt.
func (m Model) finishTurn(status components.Status, noticeCmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.turnCancel != nil {
		m.turnCancel()
		m.turnCancel = nil
	}

	m.buffer.Reset()
	m.liveText = ""
	m.ticking = false
	m.statusBar.SetStatus(status)

	m.rebuildTranscript()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, noticeCmd
}

// handleStreamTick flushes buffered deltas into the live view.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.ticking {
		return m, nil
	}

	if delta, ok := m.buffer.Flush(); ok {
		m.liveText += delta
		m.refreshViewport()
	}

	if m.session.InFlight() {
		return m, streamTickCmd()
	}

	m.ticking = false
	return m, nil
}

// handleSpinnerTick animates the waiting indicator while a turn is
// pending.
func (m Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if !m.session.InFlight() {
		return m, nil
	}

	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)

	// The spinner renders inside the live turn until the first delta
	if m.liveText == "" {
		m.refreshViewport()
	}
	return m, cmd
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

// handleConfigReload applies an edited config file to the running
// interface. Session-level choices made at runtime (model, thinking,
// streaming) are kept; the theme and display options follow the file.
func (m Model) handleConfigReload(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	m.cfg = msg.cfg
	styles.Apply(msg.cfg.UI.Theme)

	// Re-render everything under the new theme
	m.rebuildTranscript()
	m.refreshViewport()

	return m, m.notice("configuration reloaded")
}

// =============================================================================
// NOTICES
// =============================================================================

// notice shows a transient message in the status bar and schedules its
// removal.
func (m *Model) notice(text string) tea.Cmd {
	m.noticeSeq++
	m.statusBar.SetMessage(text)
	return noticeExpireCmd(m.noticeSeq)
}
