// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for the /api/generate endpoint.
type GenerateRequest struct {
	Model  string `json:"model"`  // Model name (e.g., "llama3.2:3b")
	Prompt string `json:"prompt"` // The user prompt
	Stream bool   `json:"stream"` // Enable NDJSON streaming
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is the decoded reply from a non-streaming /api/generate call.
type GenerateResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           string    `json:"response"`
	Done               bool      `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`       // nanoseconds
	LoadDuration       int64     `json:"load_duration,omitempty"`        // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`    // number of tokens in prompt
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"` // nanoseconds
	EvalCount          int       `json:"eval_count,omitempty"`           // number of tokens generated
	EvalDuration       int64     `json:"eval_duration,omitempty"`        // nanoseconds
}

// TokensPerSecond calculates the generation speed from a response.
func (r *GenerateResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	seconds := float64(r.EvalDuration) / 1e9
	return float64(r.EvalCount) / seconds
}

// TotalTime returns the total generation time.
func (r *GenerateResponse) TotalTime() time.Duration {
	return time.Duration(r.TotalDuration)
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamFrame is a single decoded unit of a streaming response.
//
// A frame carries the text delta extracted from one NDJSON line, or the
// raw line itself when the line is not valid JSON. Final marks the end of
// the sequence; a Final frame may or may not carry a delta, and no frames
// follow it.
type StreamFrame struct {
	TextDelta string
	Final     bool
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// BackendError is the JSON error body returned by the backend.
type BackendError struct {
	Error string `json:"error"`
}
