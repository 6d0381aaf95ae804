// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package ui provides the full-screen terminal interface for the AsiaFeeds
AI Assistant.

The package implements an interactive chat view using the Bubble Tea
framework: a scrollable transcript, a multi-line input area, and a
status bar showing the generation state, the active model, and backend
health.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model:
  - Wraps the conversation session and the backend client
  - Viewport for transcript scrolling
  - Textarea input with Enter-to-send and Ctrl+J newlines
  - Spinner shown while waiting for the first token
  - Status bar state

## Update Loop (update.go)

Handles all Bubble Tea messages:
  - Keyboard input and slash commands
  - The generation loop (see below)
  - Window resize handling
  - Periodic backend health probes
  - Config hot-reload notifications

## Generation Loop (messages.go)

The session advances one step per tea.Cmd. Submitting a prompt issues
the first advanceCmd; every advanceMsg chains the next step until the
turn reaches a terminal state. Each step blocks only its own goroutine,
so the interface stays responsive, and exactly one step runs at a time.

Cancellation rides the per-turn context: pressing Esc cancels it, the
step in flight fails, and the turn finishes as errored.

## Streaming (streaming.go)

StreamingBuffer batches streamed deltas; a 30fps tick loop flushes them
into the live turn so the transcript redraws smoothly instead of once
per token.

## Transcript Rendering (transcript.go)

Completed turns render once and are cached. Replies with fenced code
blocks go through the chroma-based renderer in the components package;
the live turn renders as plain text until it completes.

# Usage

	err := ui.Run(ui.Options{
		Model:    args.Model,
		Thinking: args.Thinking,
	})
	if err != nil {
		log.Fatal(err)
	}

Run loads the global configuration, builds the session, starts a config
file watcher for hot reload, and blocks until the user quits.
*/
package ui
