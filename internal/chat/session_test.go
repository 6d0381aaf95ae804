// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat tracks conversation state for the asiafeeds front-end.
package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: server.URL})
	return NewSession(client, NewSelector("", ""))
}

// streamHandler replies to every request with the given NDJSON lines.
func streamHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			io.WriteString(w, line+"\n")
		}
	}
}

// runToCompletion drives Advance until the turn reaches a terminal kind.
func runToCompletion(t *testing.T, s *Session) []RenderInstruction {
	t.Helper()

	var steps []RenderInstruction
	for i := 0; i < 100; i++ {
		inst := s.Advance(context.Background())
		steps = append(steps, inst)
		switch inst.Kind {
		case RenderComplete, RenderError, RenderNone:
			return steps
		}
	}
	t.Fatal("turn did not reach a terminal state")
	return nil
}

// =============================================================================
// STREAMING LIFECYCLE TESTS
// =============================================================================

func TestSession_StreamingLifecycle(t *testing.T) {
	s := newTestSession(t, streamHandler(
		`{"response":"Hel"}`,
		`{"response":"lo"}`,
		`{"done":true}`,
	))

	if !s.Submit("Say hello") {
		t.Fatal("Submit() = false, want true")
	}

	live, ok := s.Live()
	if !ok {
		t.Fatal("Live() should report an in-flight turn")
	}
	if live.Status != StatusPending {
		t.Errorf("status after Submit = %v, want pending", live.Status)
	}
	if live.ID == "" {
		t.Error("turn should carry an ID")
	}
	if live.CreatedAt.IsZero() {
		t.Error("turn should carry a creation time")
	}

	inst := s.Advance(context.Background())
	if inst.Kind != RenderStarted {
		t.Fatalf("first Advance kind = %v, want started", inst.Kind)
	}

	live, _ = s.Live()
	if live.Status != StatusStreaming {
		t.Errorf("status after open = %v, want streaming", live.Status)
	}

	inst = s.Advance(context.Background())
	if inst.Kind != RenderDelta || inst.Delta != "Hel" {
		t.Fatalf("second Advance = {%v %q}, want delta 'Hel'", inst.Kind, inst.Delta)
	}

	inst = s.Advance(context.Background())
	if inst.Kind != RenderDelta || inst.Delta != "lo" {
		t.Fatalf("third Advance = {%v %q}, want delta 'lo'", inst.Kind, inst.Delta)
	}
	if inst.Text != "Hello" {
		t.Errorf("accumulated text = %q, want 'Hello'", inst.Text)
	}

	inst = s.Advance(context.Background())
	if inst.Kind != RenderComplete {
		t.Fatalf("final Advance kind = %v, want complete", inst.Kind)
	}

	if s.InFlight() {
		t.Error("session should be idle after completion")
	}

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Response != "Hello" {
		t.Errorf("history response = %q, want 'Hello'", history[0].Response)
	}
	if history[0].Status != StatusComplete {
		t.Errorf("history status = %v, want complete", history[0].Status)
	}

	// Once the turn is done, Advance has nothing to do.
	if inst := s.Advance(context.Background()); inst.Kind != RenderNone {
		t.Errorf("Advance on idle session = %v, want none", inst.Kind)
	}
}

func TestSession_FinalFrameWithDelta(t *testing.T) {
	s := newTestSession(t, streamHandler(
		`{"response":"almost"}`,
		`{"response":" done","done":true}`,
	))

	s.Submit("Hi")
	steps := runToCompletion(t, s)

	last := steps[len(steps)-1]
	if last.Kind != RenderComplete {
		t.Fatalf("last kind = %v, want complete", last.Kind)
	}
	if last.Delta != " done" {
		t.Errorf("last delta = %q, want ' done'", last.Delta)
	}
	if last.Text != "almost done" {
		t.Errorf("accumulated = %q, want 'almost done'", last.Text)
	}
}

func TestSession_ExhaustionWithoutDone(t *testing.T) {
	s := newTestSession(t, streamHandler(`{"response":"truncated"}`))

	s.Submit("Hi")
	steps := runToCompletion(t, s)

	last := steps[len(steps)-1]
	if last.Kind != RenderComplete {
		t.Fatalf("last kind = %v, want complete on clean exhaustion", last.Kind)
	}

	history := s.History()
	if history[0].Response != "truncated" {
		t.Errorf("response = %q, want 'truncated'", history[0].Response)
	}
	if history[0].Status != StatusComplete {
		t.Errorf("status = %v, want complete", history[0].Status)
	}
}

func TestSession_RawLineFlowsThrough(t *testing.T) {
	s := newTestSession(t, streamHandler(
		"backend hiccup",
		`{"done":true}`,
	))

	s.Submit("Hi")
	runToCompletion(t, s)

	history := s.History()
	if history[0].Response != "backend hiccup" {
		t.Errorf("response = %q, want the raw line preserved", history[0].Response)
	}
	if history[0].Status != StatusComplete {
		t.Errorf("status = %v, want complete", history[0].Status)
	}
}

// =============================================================================
// NON-STREAMING TESTS
// =============================================================================

func TestSession_NonStreaming(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"Full reply","done":true}`)
	})
	s.SetStreaming(false)

	if !s.Submit("Hi") {
		t.Fatal("Submit() = false, want true")
	}

	// A blocking turn resolves in a single step, never entering the
	// streaming state.
	inst := s.Advance(context.Background())
	if inst.Kind != RenderComplete {
		t.Fatalf("Advance kind = %v, want complete", inst.Kind)
	}
	if inst.Text != "Full reply" {
		t.Errorf("text = %q, want 'Full reply'", inst.Text)
	}

	history := s.History()
	if history[0].Status != StatusComplete {
		t.Errorf("status = %v, want complete", history[0].Status)
	}
}

func TestSession_NonStreamingMalformed(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"done":true}`)
	})
	s.SetStreaming(false)

	s.Submit("Hi")
	inst := s.Advance(context.Background())

	if inst.Kind != RenderError {
		t.Fatalf("Advance kind = %v, want error", inst.Kind)
	}

	history := s.History()
	if history[0].Status != StatusErrored {
		t.Errorf("status = %v, want errored", history[0].Status)
	}
	if history[0].Response == "" {
		t.Error("errored turn should carry a human-readable response")
	}
}

// =============================================================================
// FAILURE TESTS
// =============================================================================

func TestSession_OpenFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: server.URL})
	s := NewSession(client, NewSelector("", ""))

	s.Submit("Hi")
	inst := s.Advance(context.Background())

	if inst.Kind != RenderError {
		t.Fatalf("Advance kind = %v, want error", inst.Kind)
	}

	history := s.History()
	if history[0].Status != StatusErrored {
		t.Errorf("status = %v, want errored", history[0].Status)
	}
	if !strings.Contains(history[0].Response, "not reachable") {
		t.Errorf("response = %q, want an unreachable story", history[0].Response)
	}

	if s.InFlight() {
		t.Error("failed turn should release the in-flight guard")
	}
}

func TestSession_MidStreamFailure(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, "{\"response\":\"partial\"}\n")
		w.(http.Flusher).Flush()

		// Kill the connection without a terminating chunk so the client
		// sees a transport failure instead of a clean EOF.
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack failed: %v", err)
			return
		}
		conn.Close()
	})

	s.Submit("Hi")
	steps := runToCompletion(t, s)

	last := steps[len(steps)-1]
	if last.Kind != RenderError {
		t.Fatalf("last kind = %v, want error", last.Kind)
	}

	history := s.History()
	if history[0].Status != StatusErrored {
		t.Errorf("status = %v, want errored", history[0].Status)
	}
	if !strings.Contains(history[0].Response, "partial") {
		t.Errorf("response = %q, want the partial text kept", history[0].Response)
	}
	if !strings.Contains(history[0].Response, "[connection error: ") {
		t.Errorf("response = %q, want the connection-error marker", history[0].Response)
	}
}

// =============================================================================
// IN-FLIGHT GUARD TESTS
// =============================================================================

func TestSession_SecondSubmitIgnored(t *testing.T) {
	s := newTestSession(t, streamHandler(`{"done":true}`))

	if !s.Submit("first") {
		t.Fatal("first Submit() = false, want true")
	}

	if s.Submit("second") {
		t.Error("Submit() while in flight = true, want silent rejection")
	}

	if len(s.History()) != 1 {
		t.Errorf("history length = %d, want 1; the second prompt must not queue", len(s.History()))
	}

	runToCompletion(t, s)

	if !s.Submit("third") {
		t.Error("Submit() after completion = false, want true")
	}
}

func TestSession_EmptyPromptRejected(t *testing.T) {
	s := NewSession(ollama.NewClient(), NewSelector("", ""))

	if s.Submit("") {
		t.Error("Submit('') = true, want false")
	}

	if s.Submit("   \t\n") {
		t.Error("Submit(whitespace) = true, want false")
	}

	if len(s.History()) != 0 {
		t.Errorf("history length = %d, want 0", len(s.History()))
	}
}

func TestSession_NormalizesPrompt(t *testing.T) {
	s := NewSession(ollama.NewClient(), NewSelector("", ""))

	s.Submit("  café  ")

	history := s.History()
	if len(history) != 1 {
		t.Fatal("expected one turn")
	}
	if history[0].Prompt != "café" {
		t.Errorf("prompt = %q, want trimmed NFC form", history[0].Prompt)
	}
}

// =============================================================================
// MODEL SELECTION TESTS
// =============================================================================

func TestSession_ModelSelection(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		thinking bool
		want     string
	}{
		{"defaults", "", false, DefaultModel},
		{"requested model", "mistral:7b", false, "mistral:7b"},
		{"thinking mode", "", true, ThinkingModel},
		{"thinking beats requested", "mistral:7b", true, ThinkingModel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(ollama.NewClient(), NewSelector("", ""))
			s.SetModel(tc.model)
			s.SetThinking(tc.thinking)

			if got := s.EffectiveModel(); got != tc.want {
				t.Errorf("EffectiveModel() = %q, want %q", got, tc.want)
			}

			s.Submit("Hi")
			history := s.History()
			if history[0].Model != tc.want {
				t.Errorf("turn model = %q, want %q", history[0].Model, tc.want)
			}
			if history[0].ThinkingMode != tc.thinking {
				t.Errorf("turn thinking = %v, want %v", history[0].ThinkingMode, tc.thinking)
			}
		})
	}
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestSession_ClearHistory(t *testing.T) {
	s := newTestSession(t, streamHandler(`{"response":"hi"}`, `{"done":true}`))

	s.Submit("one")
	runToCompletion(t, s)

	s.ClearHistory()

	if len(s.History()) != 0 {
		t.Errorf("history length after clear = %d, want 0", len(s.History()))
	}

	if !s.Submit("two") {
		t.Error("Submit() after clear = false, want true")
	}
}

func TestSession_ClearWhileStreamingResetsGuard(t *testing.T) {
	release := make(chan struct{})
	first := true

	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		if first {
			first = false
			io.WriteString(w, "{\"response\":\"stale\"}\n")
			w.(http.Flusher).Flush()
			<-release
			return
		}
		io.WriteString(w, "{\"response\":\"fresh\"}\n{\"done\":true}\n")
	})
	defer close(release)

	s.Submit("old prompt")
	if inst := s.Advance(context.Background()); inst.Kind != RenderStarted {
		t.Fatalf("Advance kind = %v, want started", inst.Kind)
	}

	s.ClearHistory()

	if s.InFlight() {
		t.Error("clear should release the in-flight guard immediately")
	}

	// The next submission starts a brand new turn against the backend.
	if !s.Submit("new prompt") {
		t.Fatal("Submit() after clear = false, want true")
	}

	runToCompletion(t, s)

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want only the new turn", len(history))
	}
	if history[0].Prompt != "new prompt" {
		t.Errorf("prompt = %q, want 'new prompt'", history[0].Prompt)
	}
	if history[0].Response != "fresh" {
		t.Errorf("response = %q, want 'fresh'", history[0].Response)
	}
}

func TestSession_ConcurrentClearOrphansAdvance(t *testing.T) {
	release := make(chan struct{})

	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, "{\"response\":\"ghost\"}\n{\"done\":true}\n")
	})

	s.Submit("doomed")

	got := make(chan RenderInstruction, 1)
	go func() {
		got <- s.Advance(context.Background())
	}()

	// Let the goroutine block on the open, then orphan its turn.
	time.Sleep(50 * time.Millisecond)
	s.ClearHistory()
	close(release)

	select {
	case inst := <-got:
		if inst.Kind != RenderNone {
			t.Errorf("orphaned Advance kind = %v, want none", inst.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Advance did not return after the clear")
	}

	if len(s.History()) != 0 {
		t.Errorf("history length = %d, want 0; the ghost result must not land", len(s.History()))
	}

	if s.InFlight() {
		t.Error("session should be idle")
	}
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSession_HistoryIsSnapshot(t *testing.T) {
	s := newTestSession(t, streamHandler(`{"response":"hi"}`, `{"done":true}`))

	s.Submit("one")
	runToCompletion(t, s)

	snapshot := s.History()
	snapshot[0].Response = "tampered"

	if s.History()[0].Response != "hi" {
		t.Error("mutating a snapshot must not affect the session")
	}
}

func TestTurnStatus_String(t *testing.T) {
	tests := []struct {
		status TurnStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusStreaming, "streaming"},
		{StatusComplete, "complete"},
		{StatusErrored, "errored"},
		{TurnStatus(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", int(tc.status), got, tc.want)
		}
	}
}

func TestTurnStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() || StatusStreaming.Terminal() {
		t.Error("pending and streaming are not terminal")
	}

	if !StatusComplete.Terminal() || !StatusErrored.Terminal() {
		t.Error("complete and errored are terminal")
	}
}
