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

// Auditor judges overall article quality with the LLM.
type Auditor struct {
	generator
}

// NewAuditor creates the quality audit agent.
func NewAuditor(registry *llm.Registry, cfg AgentConfig) *Auditor {
	return &Auditor{generator{registry: registry, defaults: cfg}}
}

// Audit implements pipeline.QualityAuditor.
func (a *Auditor) Audit(ctx context.Context, article string, bp *pipeline.Blueprint, sel pipeline.ModelSelection) (*pipeline.AuditReport, error) {
	raw, err := a.generate(ctx, sel, fmt.Sprintf(auditPrompt, bp.Title, bp.Audience, article), llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.2),
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Passed   bool   `json:"passed"`
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return nil, err
	}

	report := &pipeline.AuditReport{
		Passed:   parsed.Passed,
		Feedback: strings.TrimSpace(parsed.Feedback),
	}
	if !report.Passed && report.Feedback == "" {
		return nil, fmt.Errorf("%w: audit failed without feedback", pipeline.ErrMalformedOutput)
	}
	if report.Passed {
		report.Feedback = ""
	}
	return report, nil
}
