// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for asiafeeds.
//
// This package implements all CLI commands for the AsiaFeeds AI Assistant,
// covering both interactive modes (TUI, readline chat) and one-shot modes
// (ask, status, config) with machine-readable --json output for scripting.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Envelope for --json output with status, command, and data
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Single question, answer, exit
//   - chat: Interactive readline chat session
//   - serve: HTTP relay server in front of Ollama
//   - status: Backend reachability and configuration display
//   - config: Configuration show/get/set/list/reset/path
//   - version: Version information
//
// Running with no command starts the full-screen TUI.
//
// All commands support the --json flag for scripted use.
package cli
