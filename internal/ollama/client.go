// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeMalformed
	ErrTypeBackend
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "backend is unreachable"}
	ErrMalformed   = &ClientError{Type: ErrTypeMalformed, Message: "backend reply is missing the response field"}
)

// IsUnreachable reports whether an error means the backend could not be
// reached: connection refused, DNS failure, or a timed-out request.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return errors.Is(err, ErrUnreachable)
}

// IsMalformed reports whether an error means the backend answered with a
// payload the client could not use.
func IsMalformed(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeMalformed
	}
	return errors.Is(err, ErrMalformed)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend API base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for non-streaming generation requests (default: 60s)
	Timeout time.Duration

	// HealthTimeout bounds the liveness probe (default: 5s)
	HealthTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:8000",
		Timeout:       60 * time.Second,
		HealthTimeout: 5 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the backend API.
// It provides methods for health checks and prompt generation, both
// blocking and streaming.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := ollama.NewClient()
//	if !client.CheckHealth(ctx) {
//	    log.Fatal("backend not available")
//	}
//	resp, err := client.Generate(ctx, "llama3.2:3b", "Hello")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.HealthTimeout == 0 {
		config.HealthTimeout = 5 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth probes the backend's /health endpoint. Any HTTP 200 counts
// as healthy; every failure mode, including timeout, yields false. The
// probe never returns an error and never panics.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer drainAndClose(resp.Body)

	return resp.StatusCode == http.StatusOK
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends a non-streaming generation request and blocks until the
// backend returns the complete reply.
//
// Connection failures and timeouts surface as ErrTypeUnreachable. A 200
// reply whose body is not a JSON object carrying a response field
// surfaces as ErrTypeMalformed.
func (c *Client) Generate(ctx context.Context, model, prompt string) (*GenerateResponse, error) {
	reqBody := GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, connectError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readBackendError(resp, "generate request failed")
	}

	// The response field must be present, not merely empty. A pointer
	// distinguishes {"response":""} from a body that lacks the field.
	var result struct {
		GenerateResponse
		ResponseField *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, Message: "failed to decode response", Cause: err}
	}
	if result.ResponseField == nil {
		return nil, ErrMalformed
	}

	out := result.GenerateResponse
	out.Response = *result.ResponseField
	return &out, nil
}

// OpenStream sends a streaming generation request and returns a reader
// over the NDJSON reply. The sequence is lazy, finite, and cannot be
// restarted; the underlying connection is released when the reader is
// exhausted or closed, whichever comes first.
func (c *Client) OpenStream(ctx context.Context, model, prompt string) (*StreamReader, error) {
	reqBody := GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, Message: "failed to marshal request", Cause: err}
	}

	// Streaming uses a client without a fixed timeout; the context bounds
	// the call instead, so a long generation is not cut off mid-reply.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, connectError(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readBackendError(resp, "stream request failed")
	}

	return NewStreamReader(resp.Body), nil
}

// GenerateStream opens a stream and feeds every decoded frame to the
// callback, in order, until the sequence terminates. It blocks for the
// duration of the stream and releases the connection on every exit path.
func (c *Client) GenerateStream(ctx context.Context, model, prompt string, callback FrameCallback) error {
	reader, err := c.OpenStream(ctx, model, prompt)
	if err != nil {
		return err
	}
	defer reader.Close()

	return reader.Process(ctx, callback)
}

// =============================================================================
// HELPERS
// =============================================================================

// connectError maps a transport-level failure onto the unreachable type.
// Timeouts and refused connections are indistinguishable to the caller;
// the cause is preserved for logs.
func connectError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeUnreachable, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "backend is unreachable", Cause: err}
}

// readBackendError decodes an {"error": ...} body from a non-200 reply,
// falling back to the HTTP status line.
func readBackendError(resp *http.Response, prefix string) *ClientError {
	var backendErr BackendError
	if err := json.NewDecoder(resp.Body).Decode(&backendErr); err == nil && backendErr.Error != "" {
		return &ClientError{Type: ErrTypeBackend, Message: backendErr.Error}
	}
	return &ClientError{Type: ErrTypeBackend, Message: prefix + ": " + resp.Status}
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}
