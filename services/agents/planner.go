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

// Planner asks the LLM for an article blueprint.
type Planner struct {
	generator
}

// NewPlanner creates the planning agent.
func NewPlanner(registry *llm.Registry, cfg AgentConfig) *Planner {
	return &Planner{generator{registry: registry, defaults: cfg}}
}

// Plan implements pipeline.Planner.
func (p *Planner) Plan(ctx context.Context, topic string, affiliate bool, sel pipeline.ModelSelection) (*pipeline.Blueprint, error) {
	addendum := ""
	if affiliate {
		addendum = plannerAffiliateAddendum
	}
	prompt := fmt.Sprintf(plannerPrompt, topic, addendum)

	raw, err := p.generate(ctx, sel, prompt, llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.4),
	})
	if err != nil {
		return nil, err
	}

	var bp pipeline.Blueprint
	if err := decodeJSON(raw, &bp); err != nil {
		return nil, err
	}

	slog.Debug("Planner produced blueprint",
		"title", bp.Title,
		"sections", len(bp.Sections))
	return &bp, nil
}
