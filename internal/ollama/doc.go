// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the backend API.
//
// The backend is any server speaking the Ollama-style wire contract: a
// POST /api/generate endpoint taking {"model","prompt","stream"} and a
// GET /health liveness endpoint where any 200 means healthy. In the
// default setup that server is the asiafeeds relay, which forwards to a
// local Ollama instance.
//
// # Key Types
//
//   - Client: HTTP client with blocking and streaming generation
//   - GenerateRequest / GenerateResponse: wire structures for /api/generate
//   - StreamReader: single-use NDJSON frame reader
//   - StreamFrame: one decoded delta, or the final marker
//
// # Usage
//
// Blocking generation:
//
//	client := ollama.NewClient()
//	resp, err := client.Generate(ctx, "llama3.2:3b", "Hello")
//
// Streaming:
//
//	reader, err := client.OpenStream(ctx, "llama3.2:3b", "Hello")
//	for {
//	    frame, err := reader.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    fmt.Print(frame.TextDelta)
//	    if frame.Final {
//	        break
//	    }
//	}
//
// Stream decoding is tolerant: a line that is not valid JSON is yielded
// verbatim as a delta, and a transport failure mid-stream becomes a single
// bracketed connection-error delta rather than an error return.
package ollama
