// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
)

// =============================================================================
// STREAM READER
// =============================================================================

// FrameCallback is called for each frame decoded during streaming.
type FrameCallback func(frame StreamFrame)

// StreamReader decodes an NDJSON generation stream line by line.
//
// The sequence is finite and single-use. Once a frame with Final set has
// been returned, the reader stops consuming even if the connection is
// still open, and the connection is released.
//
// Next is meant for a single consumer, but Close may be called from
// another goroutine to abandon the stream; it unblocks a pending read.
type StreamReader struct {
	mu     sync.Mutex
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
	err    error
}

// NewStreamReader creates a stream reader that owns the response body.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	return &StreamReader{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next returns the next frame of the stream.
//
// Each line is handled in order: lines that are empty after trimming are
// skipped, lines that fail to parse as JSON are yielded verbatim as text
// deltas, parsed lines yield their response field, and a line with done
// set terminates the sequence. A transport failure mid-stream does not
// surface as an error; it yields exactly one synthetic final frame whose
// delta is a bracketed connection-error marker.
//
// After the sequence ends, Next returns io.EOF.
func (s *StreamReader) Next() (StreamFrame, error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return StreamFrame{}, io.EOF
	}
	s.mu.Unlock()

	for {
		// Read without holding the lock so a concurrent Close can
		// unblock it by closing the body.
		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			// A half-received line is dropped; the failure surfaces as
			// one synthetic frame instead of an error.
			s.mu.Lock()
			s.err = err
			s.finishLocked()
			s.mu.Unlock()
			return StreamFrame{TextDelta: "[connection error: " + err.Error() + "]", Final: true}, nil
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			frame := decodeFrame(trimmed)
			if frame.Final || err == io.EOF {
				s.mu.Lock()
				s.finishLocked()
				s.mu.Unlock()
			}
			return frame, nil
		}

		if err == io.EOF {
			s.mu.Lock()
			s.finishLocked()
			s.mu.Unlock()
			return StreamFrame{}, io.EOF
		}
	}
}

// Process reads the stream and calls the callback for each frame.
// Blocks until the sequence terminates or the context is cancelled.
// The connection is released on every exit path.
func (s *StreamReader) Process(ctx context.Context, callback FrameCallback) error {
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			frame, err := s.Next()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			callback(frame)
			if frame.Final {
				return nil
			}
		}
	}
}

// Err returns the transport failure that cut the stream short, or nil
// when the sequence ended cleanly. It is meaningful once a Final frame
// has been returned.
func (s *StreamReader) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the underlying connection. Safe to call more than once,
// after the sequence has ended, and from a goroutine other than the one
// calling Next.
func (s *StreamReader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
	return nil
}

func (s *StreamReader) finishLocked() {
	s.done = true
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
}

// decodeFrame turns one trimmed NDJSON line into a frame. A line that
// does not parse as JSON is passed through verbatim rather than dropped,
// so backend garbage stays visible in the transcript.
func decodeFrame(line []byte) StreamFrame {
	var chunk struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(line, &chunk); err != nil {
		return StreamFrame{TextDelta: string(line)}
	}
	return StreamFrame{TextDelta: chunk.Response, Final: chunk.Done}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming frames into the full reply text.
type StreamAccumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content strings.Builder
	frames  int
	done    bool
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Add processes a new frame.
func (a *StreamAccumulator) Add(frame StreamFrame) {
	if frame.TextDelta != "" {
		a.content.WriteString(frame.TextDelta)
		a.frames++
	}
	if frame.Final {
		a.done = true
	}
}

// GetContent returns the accumulated text.
func (a *StreamAccumulator) GetContent() string {
	return a.content.String()
}

// GetFrameCount returns the number of non-empty deltas received.
func (a *StreamAccumulator) GetFrameCount() int {
	return a.frames
}

// IsDone returns whether the stream reached its final frame.
func (a *StreamAccumulator) IsDone() bool {
	return a.done
}
