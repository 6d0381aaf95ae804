// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for asiafeeds.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation, and hot reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: How the chat client reaches the relay server
//   - ServerConfig: Relay listen address and Ollama upstream
//   - Watcher: Reloads the global config when the file changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ASIAFEEDS_*)
//   - ~/.asiafeeds/config.toml
//   - ~/.asiafeeds/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Models.Default
//	timeout := cfg.Backend.RequestTimeout()
package config
