// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP relay between chat front-ends and a
// local Ollama instance.
//
// The relay speaks the Ollama generate contract on the front side and
// forwards to a real Ollama upstream on the back side, so browser and
// terminal clients talk to one stable address regardless of where the
// model host runs.
//
// # Endpoints
//
//   - POST /api/generate - forward a prompt (streaming NDJSON or single JSON)
//   - GET  /health       - liveness probe, always 200 with upstream state in the payload
//   - GET  /api/version  - relay version
//   - GET  /stats        - usage statistics
//
// # Key Types
//
//   - Server: HTTP relay with router, middleware chain, and upstream client
//   - ServerStats: request and token counters
//   - CORSConfig: allowed origins for browser front-ends
//
// # Usage
//
//	cfg, _ := config.Load()
//	srv := server.NewServer(cfg)
//	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
//		log.Fatal(err)
//	}
package server
