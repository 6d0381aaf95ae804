// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want 'http://localhost:8000'", cfg.BaseURL)
	}

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}

	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("HealthTimeout = %v, want 5s", cfg.HealthTimeout)
	}
}

func TestNewClientWithConfig_FillsZeroValues(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://localhost:9999"})

	cfg := client.GetConfig()

	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q, want 'http://localhost:9999'", cfg.BaseURL)
	}

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s backfill", cfg.Timeout)
	}

	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("HealthTimeout = %v, want 5s backfill", cfg.HealthTimeout)
	}
}

func TestNewClientWithConfig_NilConfig(t *testing.T) {
	client := NewClientWithConfig(nil)

	if client.GetConfig().BaseURL == "" {
		t.Error("nil config should fall back to defaults")
	}
}

// =============================================================================
// GENERATE TESTS
// =============================================================================

func TestGenerate_ReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"llama3.2:3b","response":"Hello there","done":true}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	resp, err := client.Generate(context.Background(), "llama3.2:3b", "Hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Response != "Hello there" {
		t.Errorf("Response = %q, want 'Hello there'", resp.Response)
	}

	if resp.Model != "llama3.2:3b" {
		t.Errorf("Model = %q, want 'llama3.2:3b'", resp.Model)
	}
}

func TestGenerate_SendsWireRequest(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody GenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"response":"ok","done":true}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "llama3.2:3b", "What is Go?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}

	if gotPath != "/api/generate" {
		t.Errorf("path = %q, want '/api/generate'", gotPath)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want 'application/json'", gotContentType)
	}

	if gotBody.Model != "llama3.2:3b" {
		t.Errorf("body model = %q, want 'llama3.2:3b'", gotBody.Model)
	}

	if gotBody.Prompt != "What is Go?" {
		t.Errorf("body prompt = %q, want 'What is Go?'", gotBody.Prompt)
	}

	if gotBody.Stream {
		t.Error("body stream should be false for blocking generation")
	}
}

func TestGenerate_MissingResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"llama3.2:3b","done":true}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("Generate() should fail when the response field is missing")
	}

	if !IsMalformed(err) {
		t.Errorf("IsMalformed(%v) = false, want true", err)
	}
}

func TestGenerate_EmptyResponseFieldIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"","done":true}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	resp, err := client.Generate(context.Background(), "", "Hi")
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil for present-but-empty response", err)
	}

	if resp.Response != "" {
		t.Errorf("Response = %q, want empty", resp.Response)
	}
}

func TestGenerate_UnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `this is not json`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("Generate() should fail on an unparseable body")
	}

	if !IsMalformed(err) {
		t.Errorf("IsMalformed(%v) = false, want true", err)
	}
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens here anymore

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("Generate() should fail when nothing is listening")
	}

	if !IsUnreachable(err) {
		t.Errorf("IsUnreachable(%v) = false, want true", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"response":"too late","done":true}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})

	_, err := client.Generate(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("Generate() should fail on timeout")
	}

	if !IsUnreachable(err) {
		t.Errorf("IsUnreachable(%v) = false, want true for timeout", err)
	}
}

func TestGenerate_BackendErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"Failed to generate response: model exploded"}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("Generate() should surface a backend error")
	}

	if !strings.Contains(err.Error(), "model exploded") {
		t.Errorf("error = %q, want backend message preserved", err.Error())
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestOpenStream_FrameSequence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, "{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"done\":true}\n")
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	reader, err := client.OpenStream(context.Background(), "llama3.2:3b", "Hi")
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	defer reader.Close()

	var deltas []string
	sawFinal := false
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if frame.TextDelta != "" {
			deltas = append(deltas, frame.TextDelta)
		}
		if frame.Final {
			sawFinal = true
			break
		}
	}

	if len(deltas) != 2 || deltas[0] != "Hel" || deltas[1] != "lo" {
		t.Errorf("deltas = %v, want [Hel lo]", deltas)
	}

	if !sawFinal {
		t.Error("stream should end with a final frame")
	}
}

func TestOpenStream_SendsStreamingFlag(t *testing.T) {
	var gotBody GenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, "{\"done\":true}\n")
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	reader, err := client.OpenStream(context.Background(), "llama3.2:3b", "Hi")
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	reader.Close()

	if !gotBody.Stream {
		t.Error("body stream should be true for streaming generation")
	}
}

func TestOpenStream_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.OpenStream(context.Background(), "", "Hi")
	if err == nil {
		t.Fatal("OpenStream() should fail when nothing is listening")
	}

	if !IsUnreachable(err) {
		t.Errorf("IsUnreachable(%v) = false, want true", err)
	}
}

func TestOpenStream_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"prompt is required"}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	_, err := client.OpenStream(context.Background(), "", "")
	if err == nil {
		t.Fatal("OpenStream() should surface a backend error")
	}

	if !strings.Contains(err.Error(), "prompt is required") {
		t.Errorf("error = %q, want backend message preserved", err.Error())
	}
}

func TestGenerateStream_Accumulates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"done\":true}\n")
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	acc := NewStreamAccumulator()
	err := client.GenerateStream(context.Background(), "llama3.2:3b", "Hi", acc.Add)
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}

	if acc.GetContent() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", acc.GetContent())
	}

	if !acc.IsDone() {
		t.Error("accumulator should be done after the final frame")
	}
}

// =============================================================================
// HEALTH CHECK TESTS
// =============================================================================

func TestCheckHealth_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want '/health'", r.URL.Path)
		}
		io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	if !client.CheckHealth(context.Background()) {
		t.Error("CheckHealth() = false, want true for a 200 reply")
	}
}

func TestCheckHealth_AnyBodyCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not even json`)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	if !client.CheckHealth(context.Background()) {
		t.Error("CheckHealth() = false, want true; only the status code matters")
	}
}

func TestCheckHealth_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	if client.CheckHealth(context.Background()) {
		t.Error("CheckHealth() = true, want false for a 503 reply")
	}
}

func TestCheckHealth_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})

	if client.CheckHealth(context.Background()) {
		t.Error("CheckHealth() = true, want false when nothing is listening")
	}
}

func TestCheckHealth_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{
		BaseURL:       server.URL,
		HealthTimeout: 50 * time.Millisecond,
	})

	if client.CheckHealth(context.Background()) {
		t.Error("CheckHealth() = true, want false on timeout")
	}
}

// =============================================================================
// ERROR TYPE TESTS
// =============================================================================

func TestClientError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ClientError
		want string
	}{
		{"message only", &ClientError{Message: "boom"}, "boom"},
		{"with cause", &ClientError{Message: "boom", Cause: io.ErrUnexpectedEOF}, "boom: unexpected EOF"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnreachable bool
		wantMalformed   bool
	}{
		{"unreachable sentinel", ErrUnreachable, true, false},
		{"malformed sentinel", ErrMalformed, false, true},
		{"typed unreachable", &ClientError{Type: ErrTypeUnreachable, Message: "refused"}, true, false},
		{"typed malformed", &ClientError{Type: ErrTypeMalformed, Message: "bad body"}, false, true},
		{"backend error", &ClientError{Type: ErrTypeBackend, Message: "500"}, false, false},
		{"plain error", io.ErrUnexpectedEOF, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnreachable(tc.err); got != tc.wantUnreachable {
				t.Errorf("IsUnreachable() = %v, want %v", got, tc.wantUnreachable)
			}
			if got := IsMalformed(tc.err); got != tc.wantMalformed {
				t.Errorf("IsMalformed() = %v, want %v", got, tc.wantMalformed)
			}
		})
	}
}
