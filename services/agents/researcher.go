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

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// ResearchSink receives generated research material. *rag.Store
// satisfies it.
type ResearchSink interface {
	Ingest(ctx context.Context, source, content, runID string) (int, error)
}

// Researcher generates research notes for each query and ingests them
// into the research store for retrieval during writing.
type Researcher struct {
	generator
	sink ResearchSink
}

// NewResearcher creates the research agent.
func NewResearcher(registry *llm.Registry, sink ResearchSink, cfg AgentConfig) *Researcher {
	return &Researcher{
		generator: generator{registry: registry, defaults: cfg},
		sink:      sink,
	}
}

// Research implements pipeline.Researcher.
//
// Each query is independent: a query whose notes fail to generate or
// ingest is logged and skipped, and the remaining queries still count.
// The method fails only when every query failed.
func (r *Researcher) Research(ctx context.Context, queries []string, sel pipeline.ModelSelection) (int, error) {
	if r.sink == nil {
		return 0, fmt.Errorf("%w: no research store configured", pipeline.ErrCollaboratorUnavailable)
	}

	total := 0
	failures := 0

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		notes, err := r.generate(ctx, sel, fmt.Sprintf(researchPrompt, query), llm.GenerationParams{
			Temperature: llm.Float32Ptr(0.2),
		})
		if err != nil {
			slog.Warn("Research generation failed for query",
				"query", query, "error", err.Error())
			failures++
			continue
		}

		stored, err := r.sink.Ingest(ctx, query, notes, "")
		if err != nil {
			slog.Warn("Research ingest failed for query",
				"query", query, "error", err.Error())
			failures++
			continue
		}
		total += stored
	}

	if failures == len(queries) && len(queries) > 0 {
		return 0, fmt.Errorf("%w: all %d research queries failed", pipeline.ErrCollaboratorUnavailable, failures)
	}
	return total, nil
}
