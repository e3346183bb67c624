// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// SectionSpec describes one planned article section.
type SectionSpec struct {
	Heading         string   `json:"heading"`
	Description     string   `json:"description"`
	WordCount       int      `json:"word_count"`
	ResearchQueries []string `json:"research_queries,omitempty"`
}

// Blueprint is the planner's output: the article outline every
// downstream stage works from.
type Blueprint struct {
	Title    string        `json:"title"`
	Audience string        `json:"audience"`
	Sections []SectionSpec `json:"sections"`
}

// Validate checks that a blueprint is usable by the writing phase.
//
// Outputs:
//
//	error - Describes the first structural problem found, nil if valid
func (b *Blueprint) Validate() error {
	if b == nil {
		return fmt.Errorf("blueprint is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("blueprint has no title")
	}
	if len(b.Sections) == 0 {
		return fmt.Errorf("blueprint %q has no sections", b.Title)
	}
	for i, s := range b.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			return fmt.Errorf("blueprint %q: section %d has no heading", b.Title, i)
		}
	}
	return nil
}

// SectionResult is one unit of fan-out output, keyed by Order. Order is
// the section's position in the blueprint, so merged results can be
// reassembled deterministically no matter what order they arrive in.
type SectionResult struct {
	Order  int    `json:"order"`
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
}

// TopicCandidate is one scored suggestion from the discovery stage.
type TopicCandidate struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// RevisionState groups the fields the revision cycle reads and writes.
type RevisionState struct {
	// Article is the current full article text.
	Article string `json:"article"`

	// Feedback holds the quality auditor's requested changes. Empty
	// means the last audit passed (or no audit has run yet).
	Feedback string `json:"feedback,omitempty"`

	// FactCorrections holds the fact verifier's findings. Empty means
	// the last verification found nothing wrong.
	FactCorrections string `json:"fact_corrections,omitempty"`

	// Revisions counts completed refiner rewrites this run.
	Revisions int `json:"revisions"`
}

// Diagnostic flags a non-fatal condition observed during a run. A run
// that completes with diagnostics still produced an article; callers
// decide whether the flags warrant a retry or manual review.
type Diagnostic string

const (
	// DiagRevisionBudget means the revision budget was exhausted while
	// feedback or corrections were still outstanding.
	DiagRevisionBudget Diagnostic = "revision_budget_exhausted"

	// DiagStepBudget means the executor's overall step budget ran out.
	DiagStepBudget Diagnostic = "step_budget_exhausted"

	// DiagSectionLoss means one or more sections failed to generate and
	// were replaced with placeholders.
	DiagSectionLoss Diagnostic = "section_generation_failed"

	// DiagRefinerUnavailable means a requested rewrite could not run.
	DiagRefinerUnavailable Diagnostic = "refiner_unavailable"

	// DiagThinArticle means the finished article missed its target
	// length or structure checks.
	DiagThinArticle Diagnostic = "article_below_target"
)

// PipelineState is the single state value threaded through a run.
//
// Thread Safety:
//
//	PipelineState is a value type. The executor owns its copy for the
//	duration of a run; callers must not share one value across runs.
type PipelineState struct {
	RunID string `json:"run_id"`

	// Inputs.
	Topic         string `json:"topic"`
	Niche         string `json:"niche,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Model         string `json:"model,omitempty"`
	Discover      bool   `json:"discover,omitempty"`
	OnlyDiscovery bool   `json:"only_discovery,omitempty"`
	Interactive   bool   `json:"interactive,omitempty"`
	Affiliate     bool   `json:"affiliate,omitempty"`

	// Stage outputs.
	TopicCandidates []TopicCandidate `json:"topic_candidates,omitempty"`
	Blueprint       *Blueprint       `json:"blueprint,omitempty"`
	ResearchDocs    int              `json:"research_docs"`
	Sections        []SectionResult  `json:"sections,omitempty"`
	Revision        RevisionState    `json:"revision"`

	// ArticleHandle is where the assembled article was persisted.
	ArticleHandle string `json:"article_handle,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// HasDiagnostic reports whether a run has flagged the given condition.
func (s *PipelineState) HasDiagnostic(d Diagnostic) bool {
	for _, got := range s.Diagnostics {
		if got == d {
			return true
		}
	}
	return false
}

// Delta is a stage's declared change set. Pointer fields replace the
// corresponding state field when non-nil; Sections merge by order key;
// Diagnostics append; RevisionsDelta adds. A zero Delta is a no-op.
//
// Stages return deltas instead of mutating state so the executor
// controls exactly when and how state changes, and so section results
// arriving from parallel workers merge deterministically.
type Delta struct {
	Topic           *string
	TopicCandidates []TopicCandidate
	Blueprint       *Blueprint
	ResearchDocs    *int
	Sections        []SectionResult
	Article         *string
	Feedback        *string
	FactCorrections *string
	RevisionsDelta  int
	ArticleHandle   *string
	Diagnostics     []Diagnostic
}

// Apply folds a delta into a state and returns the result. The input
// state is not modified.
//
// Inputs:
//
//	st - Current state
//	d - Change set from the stage that just ran
//
// Outputs:
//
//	PipelineState - New state with the delta folded in
func Apply(st PipelineState, d Delta) PipelineState {
	out := st

	if d.Topic != nil {
		out.Topic = *d.Topic
	}
	if len(d.TopicCandidates) > 0 {
		out.TopicCandidates = append([]TopicCandidate(nil), d.TopicCandidates...)
	}
	if d.Blueprint != nil {
		out.Blueprint = d.Blueprint
	}
	if d.ResearchDocs != nil {
		out.ResearchDocs = *d.ResearchDocs
	}
	if len(d.Sections) > 0 {
		out.Sections = MergeSections(st.Sections, d.Sections)
	}
	if d.Article != nil {
		out.Revision.Article = *d.Article
	}
	if d.Feedback != nil {
		out.Revision.Feedback = *d.Feedback
	}
	if d.FactCorrections != nil {
		out.Revision.FactCorrections = *d.FactCorrections
	}
	out.Revision.Revisions += d.RevisionsDelta
	if d.ArticleHandle != nil {
		out.ArticleHandle = *d.ArticleHandle
	}
	if len(d.Diagnostics) > 0 {
		out.Diagnostics = append(append([]Diagnostic(nil), st.Diagnostics...), d.Diagnostics...)
	}

	return out
}

// MergeSections merges incoming section results into an existing set.
//
// # Description
//
//	Each result is keyed by its Order. An incoming result replaces any
//	existing result with the same order; otherwise it is inserted. The
//	output is always sorted by order, so merging the same results in
//	any arrival order, or merging a result twice, yields an identical
//	slice. Neither input slice is modified.
//
// Inputs:
//
//	existing - Results already held in state, assumed sorted
//	incoming - New results, in any order
//
// Outputs:
//
//	[]SectionResult - Merged results sorted ascending by Order
func MergeSections(existing, incoming []SectionResult) []SectionResult {
	byOrder := make(map[int]SectionResult, len(existing)+len(incoming))
	for _, r := range existing {
		byOrder[r.Order] = r
	}
	for _, r := range incoming {
		byOrder[r.Order] = r
	}

	out := make([]SectionResult, 0, len(byOrder))
	for _, r := range byOrder {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// strPtr is a convenience for building deltas.
func strPtr(s string) *string { return &s }

// intPtr is a convenience for building deltas.
func intPtr(n int) *int { return &n }
