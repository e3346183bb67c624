// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"errors"
	"sync"
	"testing"
)

func TestStateMachine_ValidTransitions(t *testing.T) {
	sm := NewStateMachine()

	validTransitions := []struct {
		from Stage
		to   Stage
	}{
		// IDLE transitions
		{StageIdle, StageDiscover},
		{StageIdle, StagePlan},
		{StageIdle, StageError},

		// DISCOVER transitions
		{StageDiscover, StagePlan},
		{StageDiscover, StageComplete},
		{StageDiscover, StageError},

		// PLAN transitions
		{StagePlan, StageResearch},
		{StagePlan, StageError},

		// RESEARCH transitions
		{StageResearch, StageWrite},
		{StageResearch, StageError},

		// WRITE_SECTIONS transitions
		{StageWrite, StageAssemble},
		{StageWrite, StageError},

		// ASSEMBLE transitions
		{StageAssemble, StageVerifyFacts},
		{StageAssemble, StageError},

		// VERIFY_FACTS transitions
		{StageVerifyFacts, StageRefine},
		{StageVerifyFacts, StageAudit},
		{StageVerifyFacts, StageError},

		// AUDIT transitions
		{StageAudit, StageRefine},
		{StageAudit, StageComplete},
		{StageAudit, StageError},

		// REFINE transitions
		{StageRefine, StageVerifyFacts},
		{StageRefine, StageComplete},
		{StageRefine, StageError},
	}

	for _, tt := range validTransitions {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if !sm.CanTransition(tt.from, tt.to) {
				t.Errorf("expected %s -> %s to be valid", tt.from, tt.to)
			}
		})
	}
}

func TestStateMachine_InvalidTransitions(t *testing.T) {
	sm := NewStateMachine()

	invalidTransitions := []struct {
		from Stage
		to   Stage
	}{
		// No skipping ahead
		{StageIdle, StageResearch},
		{StageIdle, StageWrite},
		{StageIdle, StageComplete},
		{StagePlan, StageWrite},
		{StagePlan, StageComplete},
		{StageResearch, StageAssemble},
		{StageWrite, StageVerifyFacts},

		// No going backwards
		{StagePlan, StageIdle},
		{StageResearch, StagePlan},
		{StageAssemble, StageWrite},

		// Audit may only be entered through clean verification
		{StageAssemble, StageAudit},
		{StageRefine, StageAudit},

		// Terminal states have no exits
		{StageComplete, StagePlan},
		{StageComplete, StageError},
		{StageError, StageIdle},
		{StageError, StageComplete},
	}

	for _, tt := range invalidTransitions {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if sm.CanTransition(tt.from, tt.to) {
				t.Errorf("expected %s -> %s to be invalid", tt.from, tt.to)
			}
		})
	}
}

func TestStateMachine_AnyStageCanError(t *testing.T) {
	sm := NewStateMachine()

	for _, stage := range AllStages() {
		if stage.Terminal() {
			continue
		}
		if !sm.CanTransition(stage, StageError) {
			t.Errorf("expected %s -> ERROR to be valid", stage)
		}
	}
}

func TestStateMachine_Transition(t *testing.T) {
	sm := NewStateMachine()

	got, err := sm.Transition(StageIdle, StagePlan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != StagePlan {
		t.Errorf("expected PLAN, got %s", got)
	}

	got, err = sm.Transition(StagePlan, StageComplete)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if got != StagePlan {
		t.Errorf("expected stage to stay PLAN on invalid transition, got %s", got)
	}
}

func TestStateMachine_ValidTransitionsFrom(t *testing.T) {
	sm := NewStateMachine()

	targets := sm.ValidTransitionsFrom(StageVerifyFacts)
	want := map[Stage]bool{StageRefine: true, StageAudit: true, StageError: true}
	if len(targets) != len(want) {
		t.Fatalf("expected %d targets from VERIFY_FACTS, got %d: %v", len(want), len(targets), targets)
	}
	for _, s := range targets {
		if !want[s] {
			t.Errorf("unexpected target %s from VERIFY_FACTS", s)
		}
	}

	if got := sm.ValidTransitionsFrom(StageComplete); len(got) != 0 {
		t.Errorf("expected no targets from COMPLETE, got %v", got)
	}
}

func TestStateMachine_Terminal(t *testing.T) {
	for _, stage := range AllStages() {
		want := stage == StageComplete || stage == StageError
		if stage.Terminal() != want {
			t.Errorf("Terminal(%s) = %v, want %v", stage, stage.Terminal(), want)
		}
	}
}

func TestStateMachine_ConcurrentAccess(t *testing.T) {
	sm := NewStateMachine()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sm.CanTransition(StageIdle, StagePlan)
			sm.ValidTransitionsFrom(StageRefine)
			_, _ = sm.Transition(StageAudit, StageRefine)
		}()
	}
	wg.Wait()
}
