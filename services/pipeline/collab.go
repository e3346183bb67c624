// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"fmt"
)

// ModelSelection names the provider and model a collaborator should use
// for one call. Zero values mean "use the collaborator's default".
type ModelSelection struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// DiscoveryResult is the discovery collaborator's output.
type DiscoveryResult struct {
	// Topic is the selected topic. Empty in interactive mode, where the
	// caller picks from Candidates instead.
	Topic      string
	Candidates []TopicCandidate
}

// FactReport is the fact verifier's output.
type FactReport struct {
	// Corrections describes every factual problem found, empty when the
	// article verified clean.
	Corrections string
}

// HasErrors reports whether the verifier found anything to fix.
func (r *FactReport) HasErrors() bool {
	return r != nil && r.Corrections != ""
}

// AuditReport is the quality auditor's output.
type AuditReport struct {
	Passed bool
	// Feedback describes requested changes when Passed is false.
	Feedback string
}

// Planner produces the article blueprint for a topic.
type Planner interface {
	Plan(ctx context.Context, topic string, affiliate bool, sel ModelSelection) (*Blueprint, error)
}

// Discovery proposes topics for a niche.
type Discovery interface {
	Discover(ctx context.Context, niche string, sel ModelSelection) (*DiscoveryResult, error)
}

// Researcher gathers background material for the blueprint's research
// queries and makes it available to the writing phase. It returns how
// many documents were ingested.
type Researcher interface {
	Research(ctx context.Context, queries []string, sel ModelSelection) (int, error)
}

// SectionAuthor writes one article section. Implementations are called
// concurrently by the fan-out coordinator and must be safe for
// concurrent use.
type SectionAuthor interface {
	WriteSection(ctx context.Context, spec SectionSpec, order int, sel ModelSelection) (SectionResult, error)
}

// Assembler merges section results into a polished article and
// persists it. It returns the article text and a handle naming where
// the article was stored.
type Assembler interface {
	Assemble(ctx context.Context, sections []SectionResult, bp *Blueprint, runID string, sel ModelSelection) (article, handle string, err error)
}

// FactVerifier checks an article for factual problems.
type FactVerifier interface {
	VerifyFacts(ctx context.Context, article string, sel ModelSelection) (*FactReport, error)
}

// QualityAuditor judges whether an article is ready to publish.
type QualityAuditor interface {
	Audit(ctx context.Context, article string, bp *Blueprint, sel ModelSelection) (*AuditReport, error)
}

// Refiner rewrites an article to address feedback or corrections and
// re-persists it at the given handle.
type Refiner interface {
	Refine(ctx context.Context, article, feedback, handle string, sel ModelSelection) (string, error)
}

// Collaborators bundles every external dependency a run needs.
// Discovery may be nil when runs never use discovery mode; everything
// else is required.
type Collaborators struct {
	Planner   Planner
	Discovery Discovery
	Research  Researcher
	Author    SectionAuthor
	Assembler Assembler
	Verifier  FactVerifier
	Auditor   QualityAuditor
	Refiner   Refiner
}

// Validate checks that all required collaborators are present.
func (c *Collaborators) Validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingCollaborator, name)
	}
	switch {
	case c.Planner == nil:
		return missing("planner")
	case c.Research == nil:
		return missing("researcher")
	case c.Author == nil:
		return missing("section author")
	case c.Assembler == nil:
		return missing("assembler")
	case c.Verifier == nil:
		return missing("fact verifier")
	case c.Auditor == nil:
		return missing("quality auditor")
	case c.Refiner == nil:
		return missing("refiner")
	}
	return nil
}

// ErrorPolicy decides what a stage does when its collaborator fails.
type ErrorPolicy int

const (
	// PolicyPropagate fails the run.
	PolicyPropagate ErrorPolicy = iota

	// PolicyPassOpen treats the failure as a clean result and moves on.
	// Verification stages pass open so a flaky checker can delay
	// publication only by what it actually finds, never by being down.
	PolicyPassOpen

	// PolicyIsolateUnit confines the failure to one fan-out unit,
	// replacing its output with a placeholder.
	PolicyIsolateUnit
)

// String returns the policy name.
func (p ErrorPolicy) String() string {
	switch p {
	case PolicyPropagate:
		return "propagate"
	case PolicyPassOpen:
		return "pass_open"
	case PolicyIsolateUnit:
		return "isolate_unit"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Role names a collaborator slot for policy lookup and logging.
type Role string

const (
	RolePlanner   Role = "planner"
	RoleDiscovery Role = "discovery"
	RoleResearch  Role = "researcher"
	RoleAuthor    Role = "section_author"
	RoleAssembler Role = "assembler"
	RoleVerifier  Role = "fact_verifier"
	RoleAuditor   Role = "quality_auditor"
	RoleRefiner   Role = "refiner"
)

// DefaultErrorPolicies is the declared per-collaborator failure policy.
// The bias is availability: only failures that make the article
// impossible to produce at all (no blueprint, no assembled text) fail
// the run.
var DefaultErrorPolicies = map[Role]ErrorPolicy{
	RolePlanner:   PolicyPropagate,
	RoleDiscovery: PolicyPropagate,
	RoleResearch:  PolicyPassOpen,
	RoleAuthor:    PolicyIsolateUnit,
	RoleAssembler: PolicyPropagate,
	RoleVerifier:  PolicyPassOpen,
	RoleAuditor:   PolicyPassOpen,
	RoleRefiner:   PolicyPassOpen,
}
