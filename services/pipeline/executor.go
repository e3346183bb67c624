// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("inkwell.pipeline")
	meter  = otel.Meter("inkwell.pipeline")
)

const (
	// DefaultMaxRevisions bounds refiner rewrites per run.
	DefaultMaxRevisions = 3

	// DefaultStepBudget bounds total stage executions per run. It is a
	// backstop independent of the revision budget: no combination of
	// loop outcomes may run longer than this.
	DefaultStepBudget = 50
)

// Config tunes an Executor.
type Config struct {
	// MaxRevisions caps refiner rewrites. Zero means
	// DefaultMaxRevisions.
	MaxRevisions int

	// StepBudget caps total stage executions. Zero means
	// DefaultStepBudget.
	StepBudget int

	// FanOut controls the section writing phase.
	FanOut FanOutConfig

	// Policies overrides DefaultErrorPolicies when non-nil.
	Policies map[Role]ErrorPolicy
}

// Executor drives a pipeline run through the stage graph.
//
// Description:
//
//	Executor owns the run loop: it executes the current stage, folds
//	the stage's delta into the state, routes on the new state, and
//	validates every hop against the transition graph. Context
//	cancellation is honored at stage boundaries and inside stage work
//	through the collaborators' own context handling.
//
// Thread Safety:
//
//	Executor is safe for concurrent use. Multiple runs can execute
//	concurrently on the same Executor.
type Executor struct {
	collab   Collaborators
	cfg      Config
	sm       *StateMachine
	coord    *Coordinator
	policies map[Role]ErrorPolicy
	logger   *slog.Logger

	// Metrics (initialized lazily)
	metricsOnce   sync.Once
	stageLatency  metric.Float64Histogram
	stageFailures metric.Int64Counter
	runLatency    metric.Float64Histogram
	runRevisions  metric.Int64Histogram
}

// NewExecutor creates a pipeline executor.
//
// Inputs:
//
//	collab - All collaborators. Discovery may be nil if runs never use
//	         discovery mode; everything else is required.
//	cfg - Tuning knobs. Zero values get defaults.
//	logger - Logger for run logs. If nil, uses slog.Default().
//
// Outputs:
//
//	*Executor - The configured executor.
//	error - Non-nil if a required collaborator is missing.
func NewExecutor(collab Collaborators, cfg Config, logger *slog.Logger) (*Executor, error) {
	if err := collab.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRevisions <= 0 {
		cfg.MaxRevisions = DefaultMaxRevisions
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = DefaultStepBudget
	}
	policies := cfg.Policies
	if policies == nil {
		policies = DefaultErrorPolicies
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateRouterOutcomes(DefaultStateMachine); err != nil {
		return nil, err
	}

	return &Executor{
		collab:   collab,
		cfg:      cfg,
		sm:       DefaultStateMachine,
		coord:    NewCoordinator(cfg.FanOut),
		policies: policies,
		logger:   logger,
	}, nil
}

// initMetrics lazily initializes metrics.
// Logs errors if metric creation fails but continues execution.
func (e *Executor) initMetrics() {
	e.metricsOnce.Do(func() {
		var initErrors []string

		var err error
		e.stageLatency, err = meter.Float64Histogram("pipeline_stage_duration_seconds",
			metric.WithDescription("Time spent executing each pipeline stage"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "stage_latency: "+err.Error())
		}

		e.stageFailures, err = meter.Int64Counter("pipeline_stage_failure_total",
			metric.WithDescription("Number of failed stage executions"),
		)
		if err != nil {
			initErrors = append(initErrors, "stage_failures: "+err.Error())
		}

		e.runLatency, err = meter.Float64Histogram("pipeline_run_duration_seconds",
			metric.WithDescription("Total pipeline run time"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "run_latency: "+err.Error())
		}

		e.runRevisions, err = meter.Int64Histogram("pipeline_run_revisions",
			metric.WithDescription("Refiner rewrites per completed run"),
		)
		if err != nil {
			initErrors = append(initErrors, "run_revisions: "+err.Error())
		}

		if len(initErrors) > 0 {
			e.logger.Warn("Some pipeline metrics failed to initialize",
				slog.Any("errors", initErrors))
		}
	})
}

// NewRunID generates a short unique run identifier.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Run executes a full pipeline run from the given initial state.
//
// # Description
//
//	The run starts in IDLE and loops until a terminal stage. Each
//	iteration checks the context and the step budget, executes the
//	current stage, applies its delta, and routes. Budget exhaustion is
//	not an error: the run completes with DiagStepBudget set and
//	whatever article exists at that point.
//
// Inputs:
//
//	ctx - Cancels the run at the next stage boundary
//	st - Initial state. RunID is generated if empty.
//
// Outputs:
//
//	PipelineState - Final state, valid even on error
//	Stage - Terminal stage reached (COMPLETE or ERROR)
//	error - Non-nil when the run failed or was cancelled
func (e *Executor) Run(ctx context.Context, st PipelineState) (PipelineState, Stage, error) {
	e.initMetrics()

	if st.RunID == "" {
		st.RunID = NewRunID()
	}

	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", st.RunID),
			attribute.String("run.topic", st.Topic),
			attribute.Bool("run.discover", st.Discover),
		))
	defer span.End()

	e.logger.Info("Pipeline run starting",
		slog.String("run_id", st.RunID),
		slog.String("topic", st.Topic),
		slog.Bool("discover", st.Discover))

	start := time.Now()
	stage := StageIdle
	steps := 0

	for !stage.Terminal() {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "run cancelled")
			e.logger.Warn("Pipeline run cancelled",
				slog.String("run_id", st.RunID),
				slog.String("stage", stage.String()))
			return st, StageError, err
		}

		steps++
		if steps > e.cfg.StepBudget {
			e.logger.Warn("Step budget exhausted, completing run",
				slog.String("run_id", st.RunID),
				slog.String("stage", stage.String()),
				slog.Int("budget", e.cfg.StepBudget))
			st = Apply(st, Delta{Diagnostics: []Diagnostic{DiagStepBudget}})
			stage = StageComplete
			break
		}

		delta, next, err := e.executeStage(ctx, stage, st)
		st = Apply(st, delta)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			if e.stageFailures != nil {
				e.stageFailures.Add(ctx, 1,
					metric.WithAttributes(attribute.String("stage", stage.String())))
			}
			e.logger.Error("Pipeline run failed",
				slog.String("run_id", st.RunID),
				slog.String("stage", stage.String()),
				slog.String("error", err.Error()))
			return st, StageError, err
		}

		validated, err := e.sm.Transition(stage, next)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid transition")
			return st, StageError, err
		}
		stage = validated
	}

	if stage == StageComplete {
		st = e.finishChecks(st)
	}

	elapsed := time.Since(start)
	if e.runLatency != nil {
		e.runLatency.Record(ctx, elapsed.Seconds())
	}
	if e.runRevisions != nil {
		e.runRevisions.Record(ctx, int64(st.Revision.Revisions))
	}
	span.SetAttributes(
		attribute.Int("run.steps", steps),
		attribute.Int("run.revisions", st.Revision.Revisions),
	)

	e.logger.Info("Pipeline run finished",
		slog.String("run_id", st.RunID),
		slog.String("stage", stage.String()),
		slog.Int("steps", steps),
		slog.Int("revisions", st.Revision.Revisions),
		slog.Duration("elapsed", elapsed),
		slog.Any("diagnostics", st.Diagnostics))

	return st, stage, nil
}

// executeStage runs one stage's work and routes on the updated state.
func (e *Executor) executeStage(ctx context.Context, stage Stage, st PipelineState) (Delta, Stage, error) {
	ctx, span := tracer.Start(ctx, "pipeline.stage."+strings.ToLower(stage.String()),
		trace.WithAttributes(attribute.String("stage", stage.String())))
	defer span.End()

	start := time.Now()
	delta, err := e.stageWork(ctx, stage, st)

	if e.stageLatency != nil {
		e.stageLatency.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage.String())))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return delta, StageError, err
	}

	next := routeFrom(stage, Apply(st, delta))
	span.SetAttributes(attribute.String("stage.next", next.String()))
	return delta, next, nil
}

// stageWork dispatches to the stage implementation.
func (e *Executor) stageWork(ctx context.Context, stage Stage, st PipelineState) (Delta, error) {
	switch stage {
	case StageIdle:
		return e.runIdle(st)
	case StageDiscover:
		return e.runDiscover(ctx, st)
	case StagePlan:
		return e.runPlan(ctx, st)
	case StageResearch:
		return e.runResearch(ctx, st)
	case StageWrite:
		return e.runWrite(ctx, st)
	case StageAssemble:
		return e.runAssemble(ctx, st)
	case StageVerifyFacts:
		return e.runVerify(ctx, st)
	case StageAudit:
		return e.runAudit(ctx, st)
	case StageRefine:
		return e.runRefine(ctx, st)
	default:
		return Delta{}, ErrInvalidTransition
	}
}

// passOpen reports whether a role's failures are absorbed.
func (e *Executor) passOpen(role Role) bool {
	return e.policies[role] == PolicyPassOpen
}

// selection builds the per-call model selection from run inputs.
func (e *Executor) selection(st PipelineState) ModelSelection {
	return ModelSelection{Provider: st.Provider, Model: st.Model}
}

// finishChecks inspects a completed run's article and flags structural
// shortfalls. It never changes the article itself.
func (e *Executor) finishChecks(st PipelineState) PipelineState {
	article := st.Revision.Article
	if article == "" || st.Blueprint == nil {
		return st
	}

	target := 0
	for _, s := range st.Blueprint.Sections {
		target += s.WordCount
	}

	words := len(strings.Fields(article))
	thin := target > 0 && words < target/2

	if !strings.Contains(article, "\n## ") && !strings.HasPrefix(article, "## ") {
		thin = true
	}

	if thin && !st.HasDiagnostic(DiagThinArticle) {
		e.logger.Warn("Finished article is below structural targets",
			slog.String("run_id", st.RunID),
			slog.Int("words", words),
			slog.Int("target_words", target))
		st = Apply(st, Delta{Diagnostics: []Diagnostic{DiagThinArticle}})
	}
	return st
}
