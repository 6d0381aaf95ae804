// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat tracks conversation state for the asiafeeds front-end.
package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/ollama"
	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/util"
)

// =============================================================================
// RENDER INSTRUCTIONS
// =============================================================================

// RenderKind tells the host loop what a call to Advance produced.
type RenderKind int

const (
	// RenderNone means there was nothing to do, or the work belonged to
	// a turn that a clear has since orphaned.
	RenderNone RenderKind = iota

	// RenderStarted means the streaming connection is open and deltas
	// will follow.
	RenderStarted

	// RenderDelta means text was appended to the live turn.
	RenderDelta

	// RenderComplete means the live turn finished successfully.
	RenderComplete

	// RenderError means the live turn failed; Text holds the story.
	RenderError
)

// String returns the kind name for logs.
func (k RenderKind) String() string {
	switch k {
	case RenderNone:
		return "none"
	case RenderStarted:
		return "started"
	case RenderDelta:
		return "delta"
	case RenderComplete:
		return "complete"
	case RenderError:
		return "error"
	default:
		return "unknown"
	}
}

// RenderInstruction is what a host should render after one Advance step.
// Delta is the text appended by this step; Text is the turn's full
// accumulated response.
type RenderInstruction struct {
	Kind  RenderKind
	Delta string
	Text  string
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns the conversation: the append-only history, the single
// live turn, and the settings the next submission will use.
//
// The design is cooperative and single-path. Hosts call Submit to start
// a turn and then call Advance repeatedly; each call performs at most one
// blocking unit of work (open the request, read one frame, finalize) and
// reports what to render. One host loop drives a session at a time;
// ClearHistory may additionally be called from another goroutine and
// orphans whatever is in flight.
type Session struct {
	mu       sync.Mutex
	client   *ollama.Client
	selector Selector

	history []*Turn
	live    *Turn
	stream  *ollama.StreamReader
	epoch   uint64

	// Settings applied to the next submission.
	model         string
	thinking      bool
	streaming     bool
	liveStreaming bool
}

// NewSession creates a session with streaming enabled.
func NewSession(client *ollama.Client, selector Selector) *Session {
	if client == nil {
		client = ollama.NewClient()
	}
	return &Session{
		client:    client,
		selector:  selector,
		streaming: true,
	}
}

// Client returns the backend client the session submits through.
func (s *Session) Client() *ollama.Client {
	return s.client
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetModel sets the explicitly requested model. An empty string means
// use the default.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Model returns the explicitly requested model, which may be empty.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetThinking toggles thinking mode for subsequent submissions.
func (s *Session) SetThinking(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = on
}

// Thinking reports whether thinking mode is on.
func (s *Session) Thinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// SetStreaming toggles streaming for subsequent submissions.
func (s *Session) SetStreaming(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = on
}

// StreamingEnabled reports whether submissions will stream.
func (s *Session) StreamingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// EffectiveModel returns the model the next submission would run on.
func (s *Session) EffectiveModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selector.Select(s.model, s.thinking)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit starts a new turn for the given prompt and reports whether it
// was accepted. While a turn is in flight, further submissions are
// silently ignored rather than queued. Empty prompts are rejected.
func (s *Session) Submit(prompt string) bool {
	prompt = util.NormalizeText(prompt)
	if prompt == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live != nil {
		return false
	}

	turn := &Turn{
		ID:           uuid.New().String(),
		Prompt:       prompt,
		Model:        s.selector.Select(s.model, s.thinking),
		ThinkingMode: s.thinking,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}

	s.history = append(s.history, turn)
	s.live = turn
	s.liveStreaming = s.streaming
	return true
}

// =============================================================================
// ADVANCE
// =============================================================================

// Advance performs one unit of work on the live turn and returns what
// the host should render. With no turn in flight it returns RenderNone
// immediately; otherwise it blocks for one step: opening the request,
// reading one frame, or completing a blocking generation.
func (s *Session) Advance(ctx context.Context) RenderInstruction {
	s.mu.Lock()
	turn := s.live
	if turn == nil {
		s.mu.Unlock()
		return RenderInstruction{Kind: RenderNone}
	}
	epoch := s.epoch
	status := turn.Status
	stream := s.stream
	streaming := s.liveStreaming
	model := turn.Model
	prompt := turn.Prompt
	s.mu.Unlock()

	switch {
	case status == StatusPending && !streaming:
		return s.advanceBlocking(ctx, epoch, turn, model, prompt)
	case status == StatusPending:
		return s.advanceOpen(ctx, epoch, turn, model, prompt)
	case stream != nil:
		return s.advanceRead(epoch, turn, stream)
	default:
		return RenderInstruction{Kind: RenderNone}
	}
}

// advanceBlocking runs a whole non-streaming generation in one step.
// The turn goes straight from Pending to Complete or Errored.
func (s *Session) advanceBlocking(ctx context.Context, epoch uint64, turn *Turn, model, prompt string) RenderInstruction {
	resp, err := s.client.Generate(ctx, model, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return RenderInstruction{Kind: RenderNone}
	}

	if err != nil {
		return s.failLocked(turn, humanizeError(err))
	}

	turn.Response = resp.Response
	turn.Status = StatusComplete
	s.live = nil
	return RenderInstruction{Kind: RenderComplete, Delta: turn.Response, Text: turn.Response}
}

// advanceOpen establishes the streaming connection.
func (s *Session) advanceOpen(ctx context.Context, epoch uint64, turn *Turn, model, prompt string) RenderInstruction {
	reader, err := s.client.OpenStream(ctx, model, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		if reader != nil {
			reader.Close()
		}
		return RenderInstruction{Kind: RenderNone}
	}

	if err != nil {
		return s.failLocked(turn, humanizeError(err))
	}

	s.stream = reader
	turn.Status = StatusStreaming
	return RenderInstruction{Kind: RenderStarted}
}

// advanceRead consumes one frame from the open stream.
func (s *Session) advanceRead(epoch uint64, turn *Turn, stream *ollama.StreamReader) RenderInstruction {
	frame, err := stream.Next()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		stream.Close()
		return RenderInstruction{Kind: RenderNone}
	}

	if err != nil {
		// io.EOF: the backend closed the stream without a done marker.
		// The turn still completes with whatever text arrived.
		if err != io.EOF {
			return s.failLocked(turn, humanizeError(err))
		}
		s.stream = nil
		turn.Status = StatusComplete
		s.live = nil
		return RenderInstruction{Kind: RenderComplete, Text: turn.Response}
	}

	turn.Response += frame.TextDelta

	if !frame.Final {
		return RenderInstruction{Kind: RenderDelta, Delta: frame.TextDelta, Text: turn.Response}
	}

	s.stream = nil
	s.live = nil
	if stream.Err() != nil {
		turn.Status = StatusErrored
		return RenderInstruction{Kind: RenderError, Delta: frame.TextDelta, Text: turn.Response}
	}
	turn.Status = StatusComplete
	return RenderInstruction{Kind: RenderComplete, Delta: frame.TextDelta, Text: turn.Response}
}

// failLocked marks the live turn errored with a human-readable story.
// Any text that already arrived stays in front of it.
func (s *Session) failLocked(turn *Turn, story string) RenderInstruction {
	if turn.Response != "" {
		story = turn.Response + "\n" + story
	}
	turn.Response = story
	turn.Status = StatusErrored
	s.live = nil
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	return RenderInstruction{Kind: RenderError, Delta: story, Text: turn.Response}
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns a snapshot of all turns, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.history))
	for i, t := range s.history {
		out[i] = *t
	}
	return out
}

// Live returns a snapshot of the in-flight turn, if any.
func (s *Session) Live() (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live == nil {
		return Turn{}, false
	}
	return *s.live, true
}

// InFlight reports whether a turn is currently pending or streaming.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live != nil
}

// ClearHistory wipes the conversation and resets the in-flight guard.
// A turn that was mid-stream is orphaned: its connection is closed and
// any result it still produces is dropped, so a submission made right
// after the clear can never be confused with the stale one.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.live = nil
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.epoch++
}

// =============================================================================
// ERROR RENDERING
// =============================================================================

// humanizeError turns a client error into the text stored on an errored
// turn.
func humanizeError(err error) string {
	switch {
	case ollama.IsUnreachable(err):
		return "The backend is not reachable: " + err.Error() + ". Is the server running?"
	case ollama.IsMalformed(err):
		return "The backend sent a reply this client could not use: " + err.Error()
	default:
		return "Generation failed: " + err.Error()
	}
}
