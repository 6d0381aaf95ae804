// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
package ollama

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// closeTracker records whether the stream body was released.
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

// brokenReader yields its data, then fails with a transport error.
type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func newTestReader(lines string) (*StreamReader, *closeTracker) {
	body := &closeTracker{Reader: strings.NewReader(lines)}
	return NewStreamReader(body), body
}

func collectFrames(t *testing.T, reader *StreamReader) []StreamFrame {
	t.Helper()

	var frames []StreamFrame
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		frames = append(frames, frame)
		if frame.Final {
			return frames
		}
	}
}

// =============================================================================
// FRAME DECODE TESTS
// =============================================================================

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantDelta string
		wantFinal bool
	}{
		{"delta line", `{"response":"Hel"}`, "Hel", false},
		{"done line", `{"done":true}`, "", true},
		{"delta and done together", `{"response":"tail","done":true}`, "tail", true},
		{"done false", `{"response":"x","done":false}`, "x", false},
		{"non-json passes through", `plain text noise`, "plain text noise", false},
		{"json array passes through", `[1,2,3]`, "[1,2,3]", false},
		{"empty object", `{}`, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame := decodeFrame([]byte(tc.line))

			if frame.TextDelta != tc.wantDelta {
				t.Errorf("TextDelta = %q, want %q", frame.TextDelta, tc.wantDelta)
			}

			if frame.Final != tc.wantFinal {
				t.Errorf("Final = %v, want %v", frame.Final, tc.wantFinal)
			}
		})
	}
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_FrameSequence(t *testing.T) {
	reader, body := newTestReader("{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"done\":true}\n")

	frames := collectFrames(t, reader)

	if len(frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(frames))
	}

	if frames[0].TextDelta != "Hel" || frames[1].TextDelta != "lo" {
		t.Errorf("deltas = %q, %q, want 'Hel', 'lo'", frames[0].TextDelta, frames[1].TextDelta)
	}

	if !frames[2].Final {
		t.Error("last frame should be final")
	}

	if reader.Err() != nil {
		t.Errorf("Err() = %v, want nil for a clean sequence", reader.Err())
	}

	acc := NewStreamAccumulator()
	for _, f := range frames {
		acc.Add(f)
	}
	if acc.GetContent() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", acc.GetContent())
	}

	if !body.closed {
		t.Error("body should be released after the final frame")
	}
}

func TestStreamReader_SkipsBlankLines(t *testing.T) {
	reader, _ := newTestReader("\n   \n{\"response\":\"a\"}\n\t\n{\"done\":true}\n")

	frames := collectFrames(t, reader)

	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2 (blank lines skipped)", len(frames))
	}

	if frames[0].TextDelta != "a" {
		t.Errorf("TextDelta = %q, want 'a'", frames[0].TextDelta)
	}
}

func TestStreamReader_NonJSONLineYieldedVerbatim(t *testing.T) {
	reader, _ := newTestReader("some log line from the backend\n{\"done\":true}\n")

	frames := collectFrames(t, reader)

	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}

	if frames[0].TextDelta != "some log line from the backend" {
		t.Errorf("TextDelta = %q, want the raw line", frames[0].TextDelta)
	}

	if frames[0].Final {
		t.Error("a raw line is a delta, not a terminator")
	}
}

func TestStreamReader_DoneStopsConsuming(t *testing.T) {
	// Lines after done must never be read, even though they are available.
	reader, body := newTestReader("{\"done\":true}\n{\"response\":\"ghost\"}\n")

	frame, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !frame.Final {
		t.Fatal("first frame should be final")
	}

	if !body.closed {
		t.Error("body should be released as soon as done arrives")
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() after done = %v, want io.EOF", err)
	}
}

func TestStreamReader_TransportErrorBecomesSyntheticFrame(t *testing.T) {
	body := &brokenReader{
		data: []byte("{\"response\":\"partial\"}\n"),
		err:  errors.New("connection reset by peer"),
	}
	reader := NewStreamReader(io.NopCloser(body))

	frames := collectFrames(t, reader)

	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}

	if frames[0].TextDelta != "partial" {
		t.Errorf("first delta = %q, want 'partial'", frames[0].TextDelta)
	}

	last := frames[1]
	if !strings.HasPrefix(last.TextDelta, "[connection error: ") {
		t.Errorf("synthetic delta = %q, want '[connection error: ' prefix", last.TextDelta)
	}
	if !strings.Contains(last.TextDelta, "connection reset by peer") {
		t.Errorf("synthetic delta = %q, want the failure detail included", last.TextDelta)
	}
	if !last.Final {
		t.Error("synthetic frame must terminate the sequence")
	}

	if reader.Err() == nil {
		t.Error("Err() should report the transport failure")
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() after synthetic frame = %v, want io.EOF", err)
	}
}

func TestStreamReader_HalfLineDroppedOnTransportError(t *testing.T) {
	body := &brokenReader{
		data: []byte("{\"response\":\"whole\"}\n{\"respo"),
		err:  errors.New("broken pipe"),
	}
	reader := NewStreamReader(io.NopCloser(body))

	frames := collectFrames(t, reader)

	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}

	if frames[0].TextDelta != "whole" {
		t.Errorf("first delta = %q, want 'whole'", frames[0].TextDelta)
	}

	if !strings.HasPrefix(frames[1].TextDelta, "[connection error: ") {
		t.Errorf("second frame = %q, want the synthetic marker, not the half line", frames[1].TextDelta)
	}
}

func TestStreamReader_ExhaustionWithoutDone(t *testing.T) {
	reader, body := newTestReader("{\"response\":\"x\"}\n")

	frames := collectFrames(t, reader)

	if len(frames) != 1 || frames[0].TextDelta != "x" {
		t.Fatalf("frames = %v, want one 'x' delta", frames)
	}

	if !body.closed {
		t.Error("body should be released on exhaustion")
	}
}

func TestStreamReader_LastLineWithoutNewline(t *testing.T) {
	reader, _ := newTestReader(`{"response":"x"}`)

	frame, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if frame.TextDelta != "x" {
		t.Errorf("TextDelta = %q, want 'x'", frame.TextDelta)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() = %v, want io.EOF after the trailing line", err)
	}
}

func TestStreamReader_CloseReleasesConnection(t *testing.T) {
	reader, body := newTestReader("{\"response\":\"x\"}\n{\"done\":true}\n")

	if err := reader.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !body.closed {
		t.Error("Close() should release the body")
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}

	// Closing again must be harmless.
	if err := reader.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

// =============================================================================
// PROCESS TESTS
// =============================================================================

func TestStreamReader_Process(t *testing.T) {
	reader, body := newTestReader("{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"done\":true}\n")

	acc := NewStreamAccumulator()
	err := reader.Process(context.Background(), acc.Add)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if acc.GetContent() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", acc.GetContent())
	}

	if acc.GetFrameCount() != 2 {
		t.Errorf("frame count = %d, want 2", acc.GetFrameCount())
	}

	if !body.closed {
		t.Error("Process() should release the body")
	}
}

func TestStreamReader_ProcessCancelled(t *testing.T) {
	reader, body := newTestReader("{\"response\":\"x\"}\n{\"done\":true}\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reader.Process(ctx, func(StreamFrame) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}

	if !body.closed {
		t.Error("Process() must release the body on cancellation too")
	}
}

// =============================================================================
// ACCUMULATOR TESTS
// =============================================================================

func TestStreamAccumulator(t *testing.T) {
	acc := NewStreamAccumulator()

	if acc.IsDone() {
		t.Error("new accumulator should not be done")
	}

	acc.Add(StreamFrame{TextDelta: "Hel"})
	acc.Add(StreamFrame{TextDelta: "lo"})
	acc.Add(StreamFrame{Final: true})

	if acc.GetContent() != "Hello" {
		t.Errorf("GetContent() = %q, want 'Hello'", acc.GetContent())
	}

	if acc.GetFrameCount() != 2 {
		t.Errorf("GetFrameCount() = %d, want 2", acc.GetFrameCount())
	}

	if !acc.IsDone() {
		t.Error("accumulator should be done after a final frame")
	}
}

func TestStreamAccumulator_FinalWithDelta(t *testing.T) {
	acc := NewStreamAccumulator()

	acc.Add(StreamFrame{TextDelta: "tail", Final: true})

	if acc.GetContent() != "tail" {
		t.Errorf("GetContent() = %q, want 'tail'", acc.GetContent())
	}

	if !acc.IsDone() {
		t.Error("a final frame carrying a delta still terminates")
	}
}
