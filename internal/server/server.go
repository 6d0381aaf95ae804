// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP relay that sits between chat
// front-ends and a local Ollama instance.
//
// Endpoints:
//   - POST /api/generate - forward a prompt to the Ollama upstream
//   - GET  /health       - liveness probe, always 200
//   - GET  /api/version  - relay version
//   - GET  /stats        - usage statistics
//
// Supports both streaming (NDJSON) and non-streaming responses.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/chat"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/config"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultListenAddr is the default bind address for the relay.
	DefaultListenAddr = ":8000"

	// MaxPromptLength is the maximum length for a prompt to prevent DoS.
	MaxPromptLength = 100000

	// MaxRequestBodySize is the maximum size for request body to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the relay version.
	Version = "1.0.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks relay usage statistics.
type ServerStats struct {
	TotalRequests    int64     `json:"total_requests"`
	StreamRequests   int64     `json:"stream_requests"`
	BlockingRequests int64     `json:"blocking_requests"`
	FailedRequests   int64     `json:"failed_requests"`
	TotalTokens      int64     `json:"total_tokens"`
	StartTime        time.Time `json:"start_time"`
	mu               sync.Mutex
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{
		StartTime: time.Now(),
	}
}

// RecordRequest records a completed generation in the stats.
func (s *ServerStats) RecordRequest(streamed bool, tokens int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalRequests++
	s.TotalTokens += tokens

	if streamed {
		s.StreamRequests++
	} else {
		s.BlockingRequests++
	}
}

// RecordFailure records a generation that never produced a reply.
func (s *ServerStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalRequests++
	s.FailedRequests++
}

// GetStats returns a copy of the current stats.
func (s *ServerStats) GetStats() ServerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ServerStats{
		TotalRequests:    s.TotalRequests,
		StreamRequests:   s.StreamRequests,
		BlockingRequests: s.BlockingRequests,
		FailedRequests:   s.FailedRequests,
		TotalTokens:      s.TotalTokens,
		StartTime:        s.StartTime,
	}
}

// Uptime returns the relay uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP relay in front of an Ollama instance.
type Server struct {
	addr        string
	upstreamURL string
	router      *http.ServeMux
	server      *http.Server

	upstream *ollama.Client
	selector chat.Selector
	stats    *ServerStats
	cors     *CORSConfig

	mu sync.RWMutex
}

// NewServer creates a new Server from the given configuration.
// A nil config uses the built-in defaults.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	upstream := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Server.UpstreamURL,
		Timeout: cfg.Server.UpstreamTimeout(),
	})

	s := &Server{
		addr:        cfg.Server.ListenAddr,
		upstreamURL: cfg.Server.UpstreamURL,
		router:      http.NewServeMux(),
		upstream:    upstream,
		selector:    chat.NewSelector(cfg.Models.Default, cfg.Models.Thinking),
		stats:       NewServerStats(),
		cors:        NewCORSConfig(cfg.Server.AllowedOrigins),
	}

	s.setupRoutes()
	return s
}

// WithUpstreamClient sets a custom upstream client.
func (s *Server) WithUpstreamClient(client *ollama.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstream = client
	return s
}

// Addr returns the address the relay binds to.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/generate", s.handleGenerate)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/version", s.handleVersion)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// GenerateRequest is the request body accepted by POST /api/generate.
type GenerateRequest struct {
	// Model names the model to use. Empty means the configured default.
	Model string `json:"model"`
	// Prompt is the user prompt. Required.
	Prompt string `json:"prompt"`
	// Stream selects NDJSON streaming over a single JSON reply.
	Stream bool `json:"stream"`
	// Thinking routes the prompt to the reasoning model, overriding
	// Model when set.
	Thinking bool `json:"thinking"`
}

// StreamLine is one NDJSON line of a streaming reply.
type StreamLine struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
}

// ============================================================================
// GENERATE HANDLER
// ============================================================================

// handleGenerate handles POST /api/generate.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	// Parse request
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		// Log full details internally, return generic message to client
		log.Printf("Invalid request body: %v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	prompt := util.NormalizeText(req.Prompt)
	if prompt == "" {
		s.writeError(w, http.StatusBadRequest, "Request must contain a prompt")
		return
	}

	if len(prompt) > MaxPromptLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Prompt exceeds maximum length of %d", MaxPromptLength))
		return
	}

	s.mu.RLock()
	model := s.selector.Select(req.Model, req.Thinking)
	s.mu.RUnlock()

	// Handle streaming vs non-streaming
	if req.Stream {
		s.handleStreamingGenerate(w, r, model, prompt)
	} else {
		s.handleBlockingGenerate(w, r, model, prompt)
	}
}

// handleBlockingGenerate forwards a non-streaming generation and returns
// the upstream reply as a single JSON object.
func (s *Server) handleBlockingGenerate(w http.ResponseWriter, r *http.Request, model, prompt string) {
	startTime := time.Now()

	s.mu.RLock()
	upstream := s.upstream
	s.mu.RUnlock()

	resp, err := upstream.Generate(r.Context(), model, prompt)
	if err != nil {
		log.Printf("REQUEST_ERROR | model=%s error=%v", model, err)
		s.stats.RecordFailure()
		s.writeError(w, http.StatusInternalServerError, "Failed to generate response: "+err.Error())
		return
	}

	tokens := int64(resp.PromptEvalCount + resp.EvalCount)
	s.stats.RecordRequest(false, tokens)

	latencyMs := time.Since(startTime).Milliseconds()
	log.Printf("REQUEST_COMPLETE | model=%s tokens=%d latency=%dms", model, tokens, latencyMs)

	s.writeJSON(w, http.StatusOK, resp)
}

// handleStreamingGenerate forwards a streaming generation, emitting one
// NDJSON line per upstream frame.
func (s *Server) handleStreamingGenerate(w http.ResponseWriter, r *http.Request, model, prompt string) {
	startTime := time.Now()

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	s.mu.RLock()
	upstream := s.upstream
	s.mu.RUnlock()

	// Open before writing any headers so an upstream failure can still
	// surface as a JSON error with a proper status code.
	reader, err := upstream.OpenStream(r.Context(), model, prompt)
	if err != nil {
		log.Printf("REQUEST_ERROR | model=%s error=%v", model, err)
		s.stats.RecordFailure()
		s.writeError(w, http.StatusInternalServerError, "Failed to generate response: "+err.Error())
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	var frames int64
	doneSent := false

	processErr := reader.Process(r.Context(), func(frame ollama.StreamFrame) {
		frames++
		s.sendStreamLine(w, flusher, StreamLine{
			Model:     model,
			CreatedAt: time.Now().UTC(),
			Response:  frame.TextDelta,
			Done:      frame.Final,
		})
		if frame.Final {
			doneSent = true
		}
	})
	if processErr != nil {
		// The requester went away; nothing left to write to.
		log.Printf("STREAM_ABANDONED | model=%s error=%v", model, processErr)
		return
	}

	if streamErr := reader.Err(); streamErr != nil {
		log.Printf("STREAM_ERROR | model=%s error=%v", model, streamErr)
	}

	// An upstream that hangs up without a done marker leaves the client
	// waiting; close the sequence for it.
	if !doneSent {
		s.sendStreamLine(w, flusher, StreamLine{
			Model:     model,
			CreatedAt: time.Now().UTC(),
			Done:      true,
		})
	}

	// Frame count approximates tokens for streamed replies.
	s.stats.RecordRequest(true, frames)

	latencyMs := time.Since(startTime).Milliseconds()
	log.Printf("STREAM_COMPLETE | model=%s frames=%d latency=%dms", model, frames, latencyMs)
}

// sendStreamLine sends a single NDJSON line.
func (s *Server) sendStreamLine(w http.ResponseWriter, flusher http.Flusher, line StreamLine) {
	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	w.Write(data)
	w.Write([]byte("\n"))
	flusher.Flush()
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Upstream string `json:"upstream"`
}

// handleHealth handles GET /health.
//
// The probe always answers 200: the relay being up is what the status
// reports. Upstream trouble shows in the payload instead, so dashboards
// see it without health checks flapping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.probeUpstream(ctx) {
		health.Upstream = "connected"
	} else {
		health.Upstream = "unreachable"
	}

	s.writeJSON(w, http.StatusOK, health)
}

// probeUpstream reports whether the Ollama upstream answers at all.
// Ollama has no /health endpoint, so the version endpoint stands in.
func (s *Server) probeUpstream(ctx context.Context) bool {
	s.mu.RLock()
	upstreamURL := s.upstreamURL
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstreamURL+"/api/version", nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": Version,
	})
}

// ============================================================================
// STATS HANDLER
// ============================================================================

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	TotalRequests    int64 `json:"total_requests"`
	StreamRequests   int64 `json:"stream_requests"`
	BlockingRequests int64 `json:"blocking_requests"`
	FailedRequests   int64 `json:"failed_requests"`
	TotalTokens      int64 `json:"total_tokens"`
	UptimeSeconds    int64 `json:"uptime_seconds"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.GetStats()

	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalRequests:    stats.TotalRequests,
		StreamRequests:   stats.StreamRequests,
		BlockingRequests: stats.BlockingRequests,
		FailedRequests:   stats.FailedRequests,
		TotalTokens:      stats.TotalTokens,
		UptimeSeconds:    int64(stats.Uptime().Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// handler wraps the router in the middleware chain.
func (s *Server) handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		CORSMiddleware(s.cors),
		LoggingMiddleware(log.Default()),
	)(s.router)
}

// Start starts the HTTP relay. It blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: a streamed generation runs as long as the
		// model talks.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.RLock()
	upstreamURL := s.upstreamURL
	s.mu.RUnlock()

	log.Printf("SERVER_START | addr=%s upstream=%s version=%s", s.addr, upstreamURL, Version)
	return s.server.ListenAndServe()
}

// ApplyConfig applies a reloaded configuration to the running relay.
// The model selection and upstream client switch over immediately; the
// listen address and allowed origins only take effect on restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selector = chat.NewSelector(cfg.Models.Default, cfg.Models.Thinking)
	s.upstreamURL = cfg.Server.UpstreamURL
	s.upstream = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Server.UpstreamURL,
		Timeout: cfg.Server.UpstreamTimeout(),
	})

	log.Printf("CONFIG_APPLIED | upstream=%s default_model=%s thinking_model=%s",
		cfg.Server.UpstreamURL, cfg.Models.Default, cfg.Models.Thinking)
}

// Shutdown gracefully shuts down the relay.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	stats := s.stats.GetStats()
	log.Printf("SERVER_SHUTDOWN | requests_served=%d uptime=%s", stats.TotalRequests, stats.Uptime().Round(time.Second))

	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the flat {"error": ...}
// shape clients decode.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
