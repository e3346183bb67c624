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
	"github.com/inkwell-ai/inkwell/services/rag"
)

// PassageSource retrieves research passages for a query. *rag.Store
// satisfies it.
type PassageSource interface {
	Query(ctx context.Context, query string, limit int) ([]rag.Passage, error)
}

// passagesPerSection caps retrieved context per section prompt.
const passagesPerSection = 4

// Writer generates one article section per call. It is the fan-out
// collaborator: the coordinator calls it concurrently, one goroutine
// per section.
//
// Thread Safety:
//
//	Writer is safe for concurrent use.
type Writer struct {
	generator
	source PassageSource
}

// NewWriter creates the section writing agent. source may be nil when
// no research store is configured.
func NewWriter(registry *llm.Registry, source PassageSource, cfg AgentConfig) *Writer {
	return &Writer{
		generator: generator{registry: registry, defaults: cfg},
		source:    source,
	}
}

// WriteSection implements pipeline.SectionAuthor.
func (w *Writer) WriteSection(ctx context.Context, spec pipeline.SectionSpec, order int, sel pipeline.ModelSelection) (pipeline.SectionResult, error) {
	material := w.retrieve(ctx, spec)

	wordCount := spec.WordCount
	if wordCount <= 0 {
		wordCount = 300
	}

	prompt := fmt.Sprintf(sectionPrompt,
		spec.Heading, spec.Description, wordCount, material, spec.Heading)

	text, err := w.generate(ctx, sel, prompt, llm.GenerationParams{
		Temperature: llm.Float32Ptr(0.6),
	})
	if err != nil {
		return pipeline.SectionResult{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return pipeline.SectionResult{}, fmt.Errorf("%w: empty section body", pipeline.ErrMalformedOutput)
	}
	if !strings.HasPrefix(text, "## ") {
		text = "## " + spec.Heading + "\n\n" + text
	}

	return pipeline.SectionResult{Order: order, Text: text}, nil
}

// retrieve gathers research passages for the section's queries. Best
// effort: retrieval problems degrade the prompt, never the section.
func (w *Writer) retrieve(ctx context.Context, spec pipeline.SectionSpec) string {
	if w.source == nil || len(spec.ResearchQueries) == 0 {
		return "(no research material available)"
	}

	var b strings.Builder
	for _, query := range spec.ResearchQueries {
		passages, err := w.source.Query(ctx, query, passagesPerSection)
		if err != nil {
			slog.Warn("Passage retrieval failed",
				"query", query, "error", err.Error())
			continue
		}
		for _, p := range passages {
			b.WriteString("- ")
			b.WriteString(p.Content)
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return "(no research material available)"
	}
	return b.String()
}
