// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Program construction and startup.

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ui/styles"
)

// Options carries command line overrides into the interface.
type Options struct {
	Model    string
	Thinking bool
	Stream   bool
	NoStream bool
}

// Run builds a session from the configuration and the given overrides,
// then runs the interface until the user quits.
func Run(opts Options) error {
	cfg := config.Global()
	styles.Apply(cfg.UI.Theme)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Backend.URL,
		Timeout:       cfg.Backend.RequestTimeout(),
		HealthTimeout: cfg.Backend.HealthTimeout(),
	})

	selector := chat.NewSelector(cfg.Models.Default, cfg.Models.Thinking)
	session := chat.NewSession(client, selector)
	session.SetModel(opts.Model)
	session.SetThinking(opts.Thinking)

	// Flags override the config; with neither flag the config decides.
	streaming := cfg.Chat.Streaming
	if opts.Stream {
		streaming = true
	}
	if opts.NoStream {
		streaming = false
	}
	session.SetStreaming(streaming)

	p := tea.NewProgram(
		New(session, client, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Config file edits land while the interface runs. Losing the
	// watcher is not fatal, the interface just won't hot-reload.
	if watcher, werr := config.NewWatcher(func(c *config.Config) {
		p.Send(configReloadedMsg{cfg: c})
	}); werr == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		} else {
			watcher.Close()
		}
	}

	_, err := p.Run()
	return err
}
