// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNotes_RespectsMarkdownStructure(t *testing.T) {
	content := "# Topic\n\n" + strings.Repeat("alpha beta gamma. ", 40) +
		"\n\n## Detail\n\n" + strings.Repeat("delta epsilon zeta. ", 40)

	chunks, err := splitNotes(content)

	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), chunkSize+chunkOverlap)
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := chunkID("the same chunk")
	b := chunkID("the same chunk")
	c := chunkID("a different chunk")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestBuildObjects(t *testing.T) {
	objects := buildObjects([]string{"first", "second"}, "heat pumps overview", "run123")

	require.Len(t, objects, 2)
	for i, obj := range objects {
		assert.Equal(t, ResearchNoteClass, obj.Class)
		assert.NotEmpty(t, obj.ID)
		props := obj.Properties.(map[string]interface{})
		assert.Equal(t, "run123", props["run_id"])
		assert.Contains(t, props["source"], "heat pumps overview_part_")
		assert.Contains(t, props["source"], string(rune('1'+i)))
	}
	assert.Equal(t, "first", objects[0].Properties.(map[string]interface{})["content"])
}
