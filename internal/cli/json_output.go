// json_output.go - JSON output support for scripted use of the CLI.
//
// Provides a standardized JSON envelope so the output of every command
// can be consumed by scripts and dashboards without scraping text.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// StatusData represents the data returned by the status command.
type StatusData struct {
	Backend StatusBackendInfo `json:"backend"`
	Models  StatusModelsInfo  `json:"models"`
	Config  StatusConfigInfo  `json:"config"`
	Stats   *StatusStatsInfo  `json:"stats,omitempty"`
}

// StatusBackendInfo describes the backend the client talks to.
type StatusBackendInfo struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Version   string `json:"version,omitempty"`
	Upstream  string `json:"upstream,omitempty"`
}

// StatusModelsInfo names the configured models.
type StatusModelsInfo struct {
	Default  string `json:"default"`
	Thinking string `json:"thinking"`
}

// StatusConfigInfo describes where configuration comes from.
type StatusConfigInfo struct {
	Path      string `json:"path"`
	Streaming bool   `json:"streaming"`
	Markdown  bool   `json:"markdown"`
	Theme     string `json:"theme"`
}

// StatusStatsInfo carries relay usage counters, present only when the
// relay answered its stats endpoint.
type StatusStatsInfo struct {
	TotalRequests    int64 `json:"total_requests"`
	StreamRequests   int64 `json:"stream_requests"`
	BlockingRequests int64 `json:"blocking_requests"`
	FailedRequests   int64 `json:"failed_requests"`
	TotalTokens      int64 `json:"total_tokens"`
	UptimeSeconds    int64 `json:"uptime_seconds"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// AskData represents the data returned by the ask command.
type AskData struct {
	Response     string `json:"response"`
	Model        string `json:"model"`
	Thinking     bool   `json:"thinking"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	DurationMs   int64  `json:"duration_ms"`
}
