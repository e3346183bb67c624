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
	"sort"

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// Discovery asks the LLM for trending topics in a niche.
type Discovery struct {
	generator
}

// NewDiscovery creates the topic discovery agent.
func NewDiscovery(registry *llm.Registry, cfg AgentConfig) *Discovery {
	return &Discovery{generator{registry: registry, defaults: cfg}}
}

// Discover implements pipeline.Discovery. The best scoring candidate
// becomes the selected topic; all candidates are returned for
// interactive selection.
func (d *Discovery) Discover(ctx context.Context, niche string, sel pipeline.ModelSelection) (*pipeline.DiscoveryResult, error) {
	raw, err := d.generate(ctx, sel, fmt.Sprintf(discoveryPrompt, niche), llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.8),
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Candidates []pipeline.TopicCandidate `json:"candidates"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("%w: discovery returned no candidates", pipeline.ErrMalformedOutput)
	}

	sort.SliceStable(parsed.Candidates, func(i, j int) bool {
		return parsed.Candidates[i].Score > parsed.Candidates[j].Score
	})

	slog.Debug("Discovery produced candidates",
		"niche", niche,
		"count", len(parsed.Candidates),
		"best", parsed.Candidates[0].Topic)
	return &pipeline.DiscoveryResult{
		Topic:      parsed.Candidates[0].Topic,
		Candidates: parsed.Candidates,
	}, nil
}
