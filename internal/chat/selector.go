// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat tracks conversation state for the asiafeeds front-end.
package chat

// Built-in model names. The thinking model is fixed: when thinking mode
// is on it wins over any explicitly requested model.
const (
	DefaultModel  = "llama3.2:3b"
	ThinkingModel = "qwen3:4b"
)

// Selector resolves which model a request should run on.
type Selector struct {
	Default  string
	Thinking string
}

// NewSelector creates a selector, falling back to the built-in model
// names for any empty value.
func NewSelector(defaultModel, thinkingModel string) Selector {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	if thinkingModel == "" {
		thinkingModel = ThinkingModel
	}
	return Selector{Default: defaultModel, Thinking: thinkingModel}
}

// Select applies the selection rule: thinking mode forces the thinking
// model, otherwise an explicitly requested model is used, otherwise the
// default.
func (s Selector) Select(requested string, thinking bool) string {
	if thinking {
		return s.Thinking
	}
	if requested != "" {
		return requested
	}
	return s.Default
}
