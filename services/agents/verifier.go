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
	"strings"

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// Verifier fact-checks an article with the LLM.
type Verifier struct {
	generator
}

// NewVerifier creates the fact checking agent.
func NewVerifier(registry *llm.Registry, cfg AgentConfig) *Verifier {
	return &Verifier{generator{registry: registry, defaults: cfg}}
}

// VerifyFacts implements pipeline.FactVerifier.
func (v *Verifier) VerifyFacts(ctx context.Context, article string, sel pipeline.ModelSelection) (*pipeline.FactReport, error) {
	raw, err := v.generate(ctx, sel, fmt.Sprintf(verifyPrompt, article), llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.0),
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		HasErrors   bool   `json:"has_errors"`
		Corrections string `json:"corrections"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return nil, err
	}

	corrections := strings.TrimSpace(parsed.Corrections)
	if !parsed.HasErrors {
		corrections = ""
	} else if corrections == "" {
		return nil, fmt.Errorf("%w: verifier flagged errors without corrections", pipeline.ErrMalformedOutput)
	}
	return &pipeline.FactReport{Corrections: corrections}, nil
}
