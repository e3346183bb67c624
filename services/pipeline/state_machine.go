// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"fmt"
	"sync"
)

// Stage identifies one phase of an article run.
type Stage string

const (
	// StageIdle is the initial state before any work runs.
	StageIdle Stage = "IDLE"

	// StageDiscover selects a topic from a niche before planning.
	StageDiscover Stage = "DISCOVER"

	// StagePlan produces the article blueprint.
	StagePlan Stage = "PLAN"

	// StageResearch gathers and ingests background material.
	StageResearch Stage = "RESEARCH"

	// StageWrite fans out section generation across workers.
	StageWrite Stage = "WRITE_SECTIONS"

	// StageAssemble merges sections into one article and persists it.
	StageAssemble Stage = "ASSEMBLE"

	// StageVerifyFacts checks the article for factual problems.
	StageVerifyFacts Stage = "VERIFY_FACTS"

	// StageAudit judges overall article quality.
	StageAudit Stage = "AUDIT"

	// StageRefine rewrites the article from corrections or feedback.
	StageRefine Stage = "REFINE"

	// StageComplete is the successful terminal state.
	StageComplete Stage = "COMPLETE"

	// StageError is the failed terminal state.
	StageError Stage = "ERROR"
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Terminal reports whether a run in this stage has finished.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// AllStages returns every defined stage.
func AllStages() []Stage {
	return []Stage{
		StageIdle,
		StageDiscover,
		StagePlan,
		StageResearch,
		StageWrite,
		StageAssemble,
		StageVerifyFacts,
		StageAudit,
		StageRefine,
		StageComplete,
		StageError,
	}
}

// StateMachine manages valid stage transitions for an article run.
//
// The state machine enforces the following transition graph:
//
//	IDLE → DISCOVER              : Run starts in discovery mode
//	IDLE → PLAN                  : Run starts with a topic
//	DISCOVER → PLAN              : Topic selected
//	DISCOVER → COMPLETE          : Discovery-only run, candidates emitted
//	DISCOVER → ERROR             : Discovery failed with no fallback
//	PLAN → RESEARCH              : Blueprint ready
//	PLAN → ERROR                 : Planning failed
//	RESEARCH → WRITE_SECTIONS    : Research ingested (possibly empty)
//	WRITE_SECTIONS → ASSEMBLE    : All section units resolved
//	ASSEMBLE → VERIFY_FACTS      : Article assembled and saved
//	ASSEMBLE → ERROR             : Assembly failed
//	VERIFY_FACTS → REFINE        : Corrections found
//	VERIFY_FACTS → AUDIT         : No factual problems
//	AUDIT → REFINE               : Auditor requested changes
//	AUDIT → COMPLETE             : Audit passed
//	REFINE → VERIFY_FACTS        : Rewrite done, re-verify facts
//	REFINE → COMPLETE            : Revision budget spent or refiner down
//	* → ERROR                    : Any stage can fail terminally
//
// Thread Safety:
//
//	StateMachine is safe for concurrent use.
type StateMachine struct {
	mu sync.RWMutex

	// transitions maps (from, to) pairs that are valid.
	transitions map[Stage]map[Stage]bool
}

// NewStateMachine creates a state machine with all valid transitions.
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[Stage]map[Stage]bool),
	}

	for _, stage := range AllStages() {
		sm.transitions[stage] = make(map[Stage]bool)
	}

	sm.addTransition(StageIdle, StageDiscover)
	sm.addTransition(StageIdle, StagePlan)

	sm.addTransition(StageDiscover, StagePlan)
	sm.addTransition(StageDiscover, StageComplete)

	sm.addTransition(StagePlan, StageResearch)

	sm.addTransition(StageResearch, StageWrite)

	sm.addTransition(StageWrite, StageAssemble)

	sm.addTransition(StageAssemble, StageVerifyFacts)

	sm.addTransition(StageVerifyFacts, StageRefine)
	sm.addTransition(StageVerifyFacts, StageAudit)

	sm.addTransition(StageAudit, StageRefine)
	sm.addTransition(StageAudit, StageComplete)

	sm.addTransition(StageRefine, StageVerifyFacts)
	sm.addTransition(StageRefine, StageComplete)

	// Any non-terminal stage may fail terminally.
	for _, stage := range AllStages() {
		if !stage.Terminal() {
			sm.addTransition(stage, StageError)
		}
	}

	return sm
}

// addTransition registers a valid transition.
func (sm *StateMachine) addTransition(from, to Stage) {
	sm.transitions[from][to] = true
}

// CanTransition checks if a transition between two stages is valid.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) CanTransition(from, to Stage) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if toMap, ok := sm.transitions[from]; ok {
		return toMap[to]
	}
	return false
}

// Transition validates a transition and returns the target stage.
//
// Outputs:
//
//	Stage - The target stage, unchanged, when the transition is valid
//	error - ErrInvalidTransition otherwise
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) Transition(from, to Stage) (Stage, error) {
	if !sm.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// ValidTransitionsFrom returns all valid target stages from a stage.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) ValidTransitionsFrom(from Stage) []Stage {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var result []Stage
	if toMap, ok := sm.transitions[from]; ok {
		for stage, valid := range toMap {
			if valid {
				result = append(result, stage)
			}
		}
	}
	return result
}

// DefaultStateMachine is the shared transition graph. Stage routing in
// the executor validates every hop against it.
var DefaultStateMachine = NewStateMachine()
