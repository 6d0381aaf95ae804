// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat tracks conversation state for the asiafeeds front-end.
package chat

import "time"

// =============================================================================
// TURN STATUS
// =============================================================================

// TurnStatus is the lifecycle state of a single chat turn.
//
// Transitions are strictly forward: Pending moves to Streaming (streamed
// turns) or directly to Complete or Errored (blocking turns). Complete
// and Errored are terminal.
type TurnStatus int

const (
	StatusPending TurnStatus = iota
	StatusStreaming
	StatusComplete
	StatusErrored
)

// String returns the status name for display and logs.
func (s TurnStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusComplete:
		return "complete"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a final one.
func (s TurnStatus) Terminal() bool {
	return s == StatusComplete || s == StatusErrored
}

// =============================================================================
// TURN
// =============================================================================

// Turn is one prompt/response exchange in the conversation.
//
// Response accumulates while the turn streams. For an errored turn it
// holds a human-readable description of what went wrong, appended to any
// text that had already arrived.
type Turn struct {
	ID           string
	Prompt       string
	Model        string
	ThinkingMode bool
	Response     string
	Status       TurnStatus
	CreatedAt    time.Time
}

// InFlight reports whether the turn is still being worked on.
func (t *Turn) InFlight() bool {
	return t.Status == StatusPending || t.Status == StatusStreaming
}
