// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the interactive terminal interface.
//
// This file implements streaming optimization for smooth, flicker-free
// rendering while a reply streams in. The StreamingBuffer batches deltas
// so the transcript redraws at a capped frame rate instead of once per
// token.
package ui

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches streamed deltas for efficient rendering.
// Deltas accumulate in the buffer and are released when either:
// 1. The batch size threshold is reached (e.g., 15 deltas)
// 2. Enough time has passed since the last flush (e.g., 33ms for 30fps)
//
// Redrawing the viewport on every token causes flicker and high CPU
// usage; batching keeps updates smooth at a fraction of the cost.
//
// Thread-safety: all operations hold a mutex. Advance steps run inside
// tea.Cmd goroutines while flushing happens on the main Bubble Tea loop.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	deltaCount int
	lastFlush  time.Time

	batchSize int           // Deltas per batch (default: 15)
	minFlush  time.Duration // Min time between flushes (default: ~33ms)
}

// NewStreamingBuffer creates a streaming buffer with default settings:
// 15 deltas per batch, 30fps flush cap.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(15, 30)
}

// NewStreamingBufferWithConfig creates a streaming buffer with a custom
// batch size and frame rate. Out-of-range values fall back to defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}

	return &StreamingBuffer{
		batchSize: batchSize,
		minFlush:  time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// Write adds a delta to the buffer.
func (sb *StreamingBuffer) Write(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(delta)
	sb.deltaCount++
}

// Flush returns accumulated content when a threshold has been crossed.
// Returns (content, true) when the batch size or the time threshold was
// reached, ("", false) otherwise. Called on each stream tick.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if !sb.shouldFlushLocked() {
		return "", false
	}
	return sb.drainLocked(), true
}

// shouldFlushLocked checks flush conditions. Caller must hold the lock.
func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.buffer.Len() == 0 {
		return false
	}
	if sb.deltaCount >= sb.batchSize {
		return true
	}
	// Time threshold keeps slow streams animating
	return time.Since(sb.lastFlush) >= sb.minFlush
}

// drainLocked extracts the content and resets. Caller must hold the lock.
func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.deltaCount = 0
	sb.lastFlush = time.Now()
	return content
}

// ForceFlush immediately returns all buffered content regardless of
// thresholds. Used when a stream completes or fails so no text is lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset clears the buffer without flushing. Used when a stream is
// cancelled or the conversation is cleared.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.deltaCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of deltas waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.deltaCount
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next flush check at 30fps. The tick loop
// runs only while a reply is streaming.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return streamTickMsg{at: t}
	})
}
