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

// ArticleSink persists assembled articles. *storage.ArticleStore
// satisfies it.
type ArticleSink interface {
	Save(title, runID, content string) (string, error)
}

// Assembler joins section results into one article, polishes the
// joints with a single LLM pass, and persists the result.
type Assembler struct {
	generator
	sink ArticleSink
}

// NewAssembler creates the assembly agent.
func NewAssembler(registry *llm.Registry, sink ArticleSink, cfg AgentConfig) *Assembler {
	return &Assembler{
		generator: generator{registry: registry, defaults: cfg},
		sink:      sink,
	}
}

// Assemble implements pipeline.Assembler.
//
// The section results arrive sorted by order key. The polish pass is
// best effort: if it fails, the raw joined draft is kept so assembly
// only fails when there is truly nothing to persist.
func (a *Assembler) Assemble(ctx context.Context, sections []pipeline.SectionResult, bp *pipeline.Blueprint, runID string, sel pipeline.ModelSelection) (string, string, error) {
	if len(sections) == 0 {
		return "", "", fmt.Errorf("%w: no sections to assemble", pipeline.ErrMalformedOutput)
	}

	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = strings.TrimSpace(s.Text)
	}
	draft := strings.Join(parts, "\n\n")

	article, err := a.generate(ctx, sel, fmt.Sprintf(assemblePrompt, bp.Title, draft), llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.3),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		slog.Warn("Polish pass failed, keeping raw draft",
			"run_id", runID, "error", err.Error())
		article = "# " + bp.Title + "\n\n" + draft
	}
	article = strings.TrimSpace(article)
	if !strings.HasPrefix(article, "# ") {
		article = "# " + bp.Title + "\n\n" + article
	}

	handle, err := a.sink.Save(bp.Title, runID, article)
	if err != nil {
		return "", "", fmt.Errorf("failed to persist article: %w", err)
	}
	return article, handle, nil
}
