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
	"log/slog"
)

// routerOutcomes declares every value routeFrom can return per stage.
// Keeping the declaration next to the router lets the executor reject
// a router/graph mismatch at construction instead of mid-run.
var routerOutcomes = map[Stage][]Stage{
	StageIdle:        {StageDiscover, StagePlan},
	StageDiscover:    {StagePlan, StageComplete},
	StagePlan:        {StageResearch},
	StageResearch:    {StageWrite},
	StageWrite:       {StageAssemble},
	StageAssemble:    {StageVerifyFacts},
	StageVerifyFacts: {StageRefine, StageAudit},
	StageAudit:       {StageRefine, StageComplete},
	StageRefine:      {StageVerifyFacts, StageComplete},
}

// validateRouterOutcomes checks that every declared router outcome is a
// legal transition in the stage graph.
func validateRouterOutcomes(sm *StateMachine) error {
	for stage, outcomes := range routerOutcomes {
		for _, next := range outcomes {
			if !sm.CanTransition(stage, next) {
				return fmt.Errorf("%w: router outcome %s -> %s is not a declared transition",
					ErrInvalidTransition, stage, next)
			}
		}
	}
	return nil
}

// routeFrom picks the next stage given the state after the current
// stage's delta was applied.
//
// # Description
//
//	Routing is a pure function of (stage, state): no clock, no
//	randomness, no collaborator calls. Every return value here must be
//	a declared transition in the state machine; the executor validates
//	each hop and treats a mismatch as a bug.
func routeFrom(stage Stage, st PipelineState) Stage {
	switch stage {
	case StageIdle:
		if st.Discover {
			return StageDiscover
		}
		return StagePlan

	case StageDiscover:
		if st.OnlyDiscovery || st.Interactive {
			return StageComplete
		}
		return StagePlan

	case StagePlan:
		return StageResearch

	case StageResearch:
		return StageWrite

	case StageWrite:
		return StageAssemble

	case StageAssemble:
		return StageVerifyFacts

	case StageVerifyFacts:
		if st.Revision.FactCorrections != "" {
			return StageRefine
		}
		return StageAudit

	case StageAudit:
		if st.Revision.Feedback != "" {
			return StageRefine
		}
		return StageComplete

	case StageRefine:
		// A rewrite that actually happened must be fact-checked again.
		// The refine stage signals "no rewrite happened" through these
		// two diagnostics, which is what ends the cycle.
		if st.HasDiagnostic(DiagRevisionBudget) || st.HasDiagnostic(DiagRefinerUnavailable) {
			return StageComplete
		}
		return StageVerifyFacts

	default:
		return StageError
	}
}

// runIdle validates run inputs before any collaborator is called.
func (e *Executor) runIdle(st PipelineState) (Delta, error) {
	if st.Discover {
		if e.collab.Discovery == nil {
			return Delta{}, fmt.Errorf("%w: discovery", ErrMissingCollaborator)
		}
		return Delta{}, nil
	}
	if st.Topic == "" {
		return Delta{}, ErrNoTopic
	}
	return Delta{}, nil
}

// runDiscover selects a topic for the run's niche.
//
// Interactive runs collect candidates and stop so the caller can pick;
// non-interactive runs adopt the discovered topic. When discovery fails
// but the caller supplied a niche, the niche itself becomes the topic
// rather than failing the whole run.
func (e *Executor) runDiscover(ctx context.Context, st PipelineState) (Delta, error) {
	res, err := e.collab.Discovery.Discover(ctx, st.Niche, e.selection(st))
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, ctx.Err()
		}
		if st.Niche != "" && !st.OnlyDiscovery && !st.Interactive {
			e.logger.Warn("Topic discovery failed, falling back to niche as topic",
				slog.String("run_id", st.RunID),
				slog.String("niche", st.Niche),
				slog.String("error", err.Error()))
			return Delta{Topic: strPtr(st.Niche)}, nil
		}
		return Delta{}, err
	}

	d := Delta{TopicCandidates: res.Candidates}
	if st.Interactive || st.OnlyDiscovery {
		return d, nil
	}
	if res.Topic == "" {
		return Delta{}, fmt.Errorf("%w: discovery returned no topic", ErrMalformedOutput)
	}
	d.Topic = strPtr(res.Topic)
	e.logger.Info("Topic discovered",
		slog.String("run_id", st.RunID),
		slog.String("topic", res.Topic))
	return d, nil
}

// runPlan produces and validates the blueprint.
func (e *Executor) runPlan(ctx context.Context, st PipelineState) (Delta, error) {
	bp, err := e.collab.Planner.Plan(ctx, st.Topic, st.Affiliate, e.selection(st))
	if err != nil {
		return Delta{}, err
	}
	if err := bp.Validate(); err != nil {
		return Delta{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	e.logger.Info("Blueprint ready",
		slog.String("run_id", st.RunID),
		slog.String("title", bp.Title),
		slog.Int("sections", len(bp.Sections)))
	return Delta{Blueprint: bp}, nil
}

// runResearch ingests background material for the blueprint's queries.
// Research is best effort: a failed or empty ingest degrades article
// grounding but never blocks writing.
func (e *Executor) runResearch(ctx context.Context, st PipelineState) (Delta, error) {
	var queries []string
	for _, s := range st.Blueprint.Sections {
		queries = append(queries, s.ResearchQueries...)
	}
	if len(queries) == 0 {
		return Delta{ResearchDocs: intPtr(0)}, nil
	}

	n, err := e.collab.Research.Research(ctx, queries, e.selection(st))
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, ctx.Err()
		}
		if e.passOpen(RoleResearch) {
			e.logger.Warn("Research failed, writing without ingested material",
				slog.String("run_id", st.RunID),
				slog.String("error", err.Error()))
			return Delta{ResearchDocs: intPtr(0)}, nil
		}
		return Delta{}, err
	}

	e.logger.Info("Research ingested",
		slog.String("run_id", st.RunID),
		slog.Int("documents", n))
	return Delta{ResearchDocs: intPtr(n)}, nil
}

// runWrite fans section generation out across the coordinator.
func (e *Executor) runWrite(ctx context.Context, st PipelineState) (Delta, error) {
	results, err := e.coord.WriteAll(ctx, e.collab.Author, st.Blueprint, e.selection(st))
	if err != nil {
		return Delta{}, err
	}

	d := Delta{Sections: results}
	for _, r := range results {
		if r.Failed {
			d.Diagnostics = []Diagnostic{DiagSectionLoss}
			break
		}
	}
	return d, nil
}

// runAssemble merges sections into the final article and persists it.
func (e *Executor) runAssemble(ctx context.Context, st PipelineState) (Delta, error) {
	article, handle, err := e.collab.Assembler.Assemble(ctx, st.Sections, st.Blueprint, st.RunID, e.selection(st))
	if err != nil {
		return Delta{}, err
	}
	e.logger.Info("Article assembled",
		slog.String("run_id", st.RunID),
		slog.String("handle", handle))
	return Delta{Article: strPtr(article), ArticleHandle: strPtr(handle)}, nil
}

// runVerify fact-checks the current article.
//
// The verifier passes open: an unreachable or unparseable verifier is
// logged and treated as a clean report, so a checker outage can never
// hold an article hostage.
func (e *Executor) runVerify(ctx context.Context, st PipelineState) (Delta, error) {
	rep, err := e.collab.Verifier.VerifyFacts(ctx, st.Revision.Article, e.selection(st))
	if err == nil && rep == nil {
		err = fmt.Errorf("%w: fact verifier returned no report", ErrMalformedOutput)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, ctx.Err()
		}
		if e.passOpen(RoleVerifier) {
			e.logger.Warn("Fact verification failed, passing open",
				slog.String("run_id", st.RunID),
				slog.String("error", err.Error()))
			return Delta{FactCorrections: strPtr("")}, nil
		}
		return Delta{}, err
	}

	if rep.HasErrors() {
		e.logger.Info("Fact verification found problems",
			slog.String("run_id", st.RunID))
	}
	return Delta{FactCorrections: strPtr(rep.Corrections)}, nil
}

// runAudit judges article quality.
//
// Like the verifier, the auditor passes open. A failed audit with no
// usable feedback is treated as a pass: there is nothing actionable to
// refine from.
func (e *Executor) runAudit(ctx context.Context, st PipelineState) (Delta, error) {
	rep, err := e.collab.Auditor.Audit(ctx, st.Revision.Article, st.Blueprint, e.selection(st))
	if err == nil && rep == nil {
		err = fmt.Errorf("%w: quality auditor returned no report", ErrMalformedOutput)
	}
	if err == nil && !rep.Passed && rep.Feedback == "" {
		err = fmt.Errorf("%w: audit failed without feedback", ErrMalformedOutput)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, ctx.Err()
		}
		if e.passOpen(RoleAuditor) {
			e.logger.Warn("Quality audit failed, passing open",
				slog.String("run_id", st.RunID),
				slog.String("error", err.Error()))
			return Delta{Feedback: strPtr("")}, nil
		}
		return Delta{}, err
	}

	if rep.Passed {
		return Delta{Feedback: strPtr("")}, nil
	}
	e.logger.Info("Quality audit requested changes",
		slog.String("run_id", st.RunID),
		slog.Int("revisions_so_far", st.Revision.Revisions))
	return Delta{Feedback: strPtr(rep.Feedback)}, nil
}

// runRefine rewrites the article from outstanding corrections or
// feedback.
//
// The revision budget is checked before the collaborator is called: an
// exhausted budget produces a diagnostic, not a rewrite, and the run
// completes with the article as it stands. Fact corrections take
// priority over audit feedback when both are outstanding. A successful
// rewrite consumes both.
func (e *Executor) runRefine(ctx context.Context, st PipelineState) (Delta, error) {
	if st.Revision.Revisions >= e.cfg.MaxRevisions {
		e.logger.Warn("Revision budget exhausted, keeping current article",
			slog.String("run_id", st.RunID),
			slog.Int("revisions", st.Revision.Revisions),
			slog.Int("budget", e.cfg.MaxRevisions))
		return Delta{Diagnostics: []Diagnostic{DiagRevisionBudget}}, nil
	}

	instructions := st.Revision.FactCorrections
	if instructions == "" {
		instructions = st.Revision.Feedback
	} else if st.Revision.Feedback != "" {
		instructions = instructions + "\n\n" + st.Revision.Feedback
	}

	article, err := e.collab.Refiner.Refine(ctx, st.Revision.Article, instructions, st.ArticleHandle, e.selection(st))
	if err != nil {
		if ctx.Err() != nil {
			return Delta{}, ctx.Err()
		}
		if e.passOpen(RoleRefiner) {
			e.logger.Warn("Refiner unavailable, keeping current article",
				slog.String("run_id", st.RunID),
				slog.String("error", err.Error()))
			return Delta{Diagnostics: []Diagnostic{DiagRefinerUnavailable}}, nil
		}
		return Delta{}, err
	}

	e.logger.Info("Article refined",
		slog.String("run_id", st.RunID),
		slog.Int("revision", st.Revision.Revisions+1))
	return Delta{
		Article:         strPtr(article),
		RevisionsDelta:  1,
		Feedback:        strPtr(""),
		FactCorrections: strPtr(""),
	}, nil
}
