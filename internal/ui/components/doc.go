// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the AsiaFeeds TUI.

This package contains styled components built on top of the Lip Gloss
library. Each component renders to a plain string so the host model can
compose them into its view.

# Components

StatusBar (statusbar.go) - Bottom status bar with the generation state,
active model, thinking-mode badge, and backend health indicator.

CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma,
with line numbers and a language badge. ParseCodeBlocks rewrites fenced
blocks inside a reply; ParseInlineCode styles `backtick` spans.

# Usage

Components are plain structs with setters and a View or Render method:

	bar := components.NewStatusBar()
	bar.SetWidth(80)
	bar.SetModel("llama3.2:3b")
	bar.SetStatus(components.StatusStreaming)
	view := bar.View()

	rendered := components.ParseCodeBlocks(replyText, 100)
*/
package components
