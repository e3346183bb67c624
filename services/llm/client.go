// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides text generation clients for the providers the
// pipeline's agents run on, plus a registry for resolving a per-agent
// provider and model selection to a concrete client.
package llm

import "context"

// GenerationParams tunes a single generation call. Nil pointer fields
// fall back to each backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client is the standard interface for any generation backend. The
// model is chosen per call so one client can serve agents configured
// with different models. An empty model means the client's default.
type Client interface {
	Generate(ctx context.Context, model, prompt string, params GenerationParams) (string, error)
}

// Float32Ptr is a convenience for building GenerationParams.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr is a convenience for building GenerationParams.
func IntPtr(v int) *int { return &v }
