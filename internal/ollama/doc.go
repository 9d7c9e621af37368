// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama-compatible
// inference server.
//
// The client speaks the server's /api/chat endpoint verbatim: a JSON body
// with a model and a messages array, answered by a newline-delimited JSON
// stream of chunks ending with one that reports done=true.
//
// # Key Types
//
//   - Client: HTTP client for the server
//   - ChatRequest: request body for /api/chat
//   - StreamChunk: one decoded line of the streamed reply
//   - StreamReader: strict line-by-line NDJSON decoder
//   - TransportError, DecodeError: the two ways a turn can fail
//
// # Usage
//
//	client := ollama.NewClient("http://localhost:11434")
//	err := client.ChatStream(ctx, ollama.ChatRequest{
//	    Model:    "llama3.2-vision",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	}, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
package ollama
