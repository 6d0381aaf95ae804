// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea messages and commands for the interface.
//
// The session is advanced one step per tea.Cmd: each advanceCmd performs
// one blocking unit of work off the main loop and reports back with an
// advanceMsg, which decides whether to chain another step.

package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
)

// healthProbeInterval is how often the backend is re-probed while idle.
const healthProbeInterval = 15 * time.Second

// noticeDuration is how long a transient status bar notice stays up.
const noticeDuration = 4 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// advanceMsg carries the result of one session advance step.
type advanceMsg struct {
	instr chat.RenderInstruction
}

// streamTickMsg drives buffered flushes while a reply streams.
type streamTickMsg struct {
	at time.Time
}

// healthMsg carries the result of a backend health probe.
type healthMsg struct {
	reachable bool
}

// healthTickMsg schedules the next periodic health probe.
type healthTickMsg struct{}

// configReloadedMsg arrives when the config watcher sees a file change.
type configReloadedMsg struct {
	cfg *config.Config
}

// noticeExpiredMsg clears a transient status bar notice. The sequence
// number guards against clearing a newer notice.
type noticeExpiredMsg struct {
	seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

// advanceCmd performs one session advance step. The context carries the
// per-turn cancellation, so Esc aborts the step in flight.
func advanceCmd(session *chat.Session, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		return advanceMsg{instr: session.Advance(ctx)}
	}
}

// checkHealthCmd probes the backend once.
func checkHealthCmd(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{reachable: client.CheckHealth(ctx)}
	}
}

// healthTickCmd schedules the next periodic health probe.
func healthTickCmd() tea.Cmd {
	return tea.Tick(healthProbeInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

// noticeExpireCmd schedules the removal of a transient notice.
func noticeExpireCmd(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
