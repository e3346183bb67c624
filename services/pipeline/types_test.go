// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSections_AnyArrivalOrder(t *testing.T) {
	a := SectionResult{Order: 0, Text: "intro"}
	b := SectionResult{Order: 1, Text: "body"}
	c := SectionResult{Order: 2, Text: "outro"}

	permutations := [][]SectionResult{
		{a, b, c},
		{a, c, b},
		{b, a, c},
		{b, c, a},
		{c, a, b},
		{c, b, a},
	}

	want := []SectionResult{a, b, c}
	for _, perm := range permutations {
		var got []SectionResult
		for _, r := range perm {
			got = MergeSections(got, []SectionResult{r})
		}
		assert.Equal(t, want, got)
	}
}

func TestMergeSections_ReplaceByOrderKey(t *testing.T) {
	existing := []SectionResult{
		{Order: 0, Text: "old intro"},
		{Order: 1, Text: "body"},
	}

	got := MergeSections(existing, []SectionResult{{Order: 0, Text: "new intro"}})

	require.Len(t, got, 2)
	assert.Equal(t, "new intro", got[0].Text)
	assert.Equal(t, "body", got[1].Text)
}

func TestMergeSections_Idempotent(t *testing.T) {
	r := SectionResult{Order: 3, Text: "conclusion"}

	once := MergeSections(nil, []SectionResult{r})
	twice := MergeSections(once, []SectionResult{r})

	assert.Equal(t, once, twice)
}

func TestMergeSections_DoesNotMutateInputs(t *testing.T) {
	existing := []SectionResult{{Order: 1, Text: "one"}}
	incoming := []SectionResult{{Order: 0, Text: "zero"}}

	_ = MergeSections(existing, incoming)

	assert.Equal(t, "one", existing[0].Text)
	assert.Equal(t, 1, existing[0].Order)
	assert.Equal(t, "zero", incoming[0].Text)
}

func TestApply_ZeroDeltaIsNoOp(t *testing.T) {
	st := PipelineState{
		RunID: "abc",
		Topic: "solar balconies",
		Sections: []SectionResult{
			{Order: 0, Text: "intro"},
		},
		Revision: RevisionState{Article: "draft", Revisions: 1},
	}

	got := Apply(st, Delta{})

	assert.Equal(t, st, got)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	st := PipelineState{Topic: "before", Revision: RevisionState{Revisions: 0}}

	_ = Apply(st, Delta{Topic: strPtr("after"), RevisionsDelta: 2})

	assert.Equal(t, "before", st.Topic)
	assert.Equal(t, 0, st.Revision.Revisions)
}

func TestApply_FieldSemantics(t *testing.T) {
	st := PipelineState{
		Topic:    "t",
		Revision: RevisionState{Article: "v1", Feedback: "fix tone", Revisions: 1},
	}

	got := Apply(st, Delta{
		Article:         strPtr("v2"),
		Feedback:        strPtr(""),
		FactCorrections: strPtr(""),
		RevisionsDelta:  1,
		Diagnostics:     []Diagnostic{DiagSectionLoss},
	})

	assert.Equal(t, "v2", got.Revision.Article)
	assert.Empty(t, got.Revision.Feedback)
	assert.Equal(t, 2, got.Revision.Revisions)
	assert.True(t, got.HasDiagnostic(DiagSectionLoss))
	assert.False(t, got.HasDiagnostic(DiagStepBudget))
}

func TestApply_DiagnosticsAppend(t *testing.T) {
	st := PipelineState{Diagnostics: []Diagnostic{DiagSectionLoss}}

	got := Apply(st, Delta{Diagnostics: []Diagnostic{DiagRevisionBudget}})

	assert.Equal(t, []Diagnostic{DiagSectionLoss, DiagRevisionBudget}, got.Diagnostics)
}

func TestBlueprint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bp      *Blueprint
		wantErr bool
	}{
		{
			name: "valid",
			bp: &Blueprint{
				Title:    "A Guide",
				Sections: []SectionSpec{{Heading: "Intro", WordCount: 200}},
			},
		},
		{
			name:    "nil",
			bp:      nil,
			wantErr: true,
		},
		{
			name:    "no title",
			bp:      &Blueprint{Sections: []SectionSpec{{Heading: "Intro"}}},
			wantErr: true,
		},
		{
			name:    "no sections",
			bp:      &Blueprint{Title: "A Guide"},
			wantErr: true,
		},
		{
			name: "blank heading",
			bp: &Blueprint{
				Title:    "A Guide",
				Sections: []SectionSpec{{Heading: "  "}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bp.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
