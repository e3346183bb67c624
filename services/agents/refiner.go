// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// ArticleRewriter re-persists refined articles. *storage.ArticleStore
// satisfies it.
type ArticleRewriter interface {
	Overwrite(handle, content string) error
}

// Refiner rewrites an article to address feedback and overwrites the
// persisted copy.
type Refiner struct {
	generator
	sink ArticleRewriter
}

// NewRefiner creates the refinement agent. sink may be nil when
// articles are not persisted.
func NewRefiner(registry *llm.Registry, sink ArticleRewriter, cfg AgentConfig) *Refiner {
	return &Refiner{
		generator: generator{registry: registry, defaults: cfg},
		sink:      sink,
	}
}

// Refine implements pipeline.Refiner.
func (r *Refiner) Refine(ctx context.Context, article, feedback, handle string, sel pipeline.ModelSelection) (string, error) {
	revised, err := r.generate(ctx, sel, fmt.Sprintf(refinePrompt, feedback, article), llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.4),
	})
	if err != nil {
		return "", err
	}

	revised = strings.TrimSpace(revised)
	if revised == "" {
		return "", fmt.Errorf("%w: refiner returned empty article", pipeline.ErrMalformedOutput)
	}

	if r.sink != nil && handle != "" {
		if err := r.sink.Overwrite(handle, revised); err != nil {
			// The rewrite itself succeeded; keep it in state and let
			// the next persist attempt catch up.
			slog.Warn("Failed to overwrite persisted article",
				"handle", handle, "error", err.Error())
		}
	}
	return revised, nil
}
