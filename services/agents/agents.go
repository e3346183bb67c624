// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agents implements the pipeline's collaborators on top of the
// LLM provider registry: planning, topic discovery, research, section
// writing, assembly, fact verification, quality audit, and refinement.
//
// Every agent wraps provider failures in the pipeline's error taxonomy
// so the executor's per-collaborator policies apply uniformly:
// unreachable backends surface as ErrCollaboratorUnavailable and
// unparseable responses as ErrMalformedOutput.
package agents

import (
	"context"
	"fmt"

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// AgentConfig sets one agent's default provider and model. A run's own
// selection, when present, takes precedence call by call.
type AgentConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// generator is the shared LLM plumbing embedded by every agent.
type generator struct {
	registry *llm.Registry
	defaults AgentConfig
}

// merge resolves the effective selection for one call.
func (g *generator) merge(sel pipeline.ModelSelection) pipeline.ModelSelection {
	if sel.Provider == "" {
		sel.Provider = g.defaults.Provider
	}
	if sel.Model == "" {
		sel.Model = g.defaults.Model
	}
	return sel
}

// generate resolves the provider and runs one completion. Backend
// failures are wrapped as collaborator unavailability.
func (g *generator) generate(ctx context.Context, sel pipeline.ModelSelection, prompt string, params llm.GenerationParams) (string, error) {
	sel = g.merge(sel)

	client, err := g.registry.Resolve(sel.Provider)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrCollaboratorUnavailable, err)
	}

	out, err := client.Generate(ctx, sel.Model, prompt, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", pipeline.ErrCollaboratorUnavailable, err)
	}
	return out, nil
}
