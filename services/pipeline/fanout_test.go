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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthor struct {
	mu         sync.Mutex
	failOrders map[int]bool
	calls      int
	block      chan struct{}
}

func (a *stubAuthor) WriteSection(ctx context.Context, spec SectionSpec, order int, sel ModelSelection) (SectionResult, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return SectionResult{}, ctx.Err()
		}
	}
	if a.failOrders[order] {
		return SectionResult{}, fmt.Errorf("%w: generation backend down", ErrCollaboratorUnavailable)
	}
	return SectionResult{Order: order, Text: "## " + spec.Heading + "\n\nbody"}, nil
}

func (a *stubAuthor) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func fiveSectionBlueprint() *Blueprint {
	bp := &Blueprint{Title: "Test Article", Audience: "general"}
	for i := 0; i < 5; i++ {
		bp.Sections = append(bp.Sections, SectionSpec{
			Heading:   fmt.Sprintf("Section %d", i),
			WordCount: 200,
		})
	}
	return bp
}

func TestCoordinator_WriteAll(t *testing.T) {
	author := &stubAuthor{}
	coord := NewCoordinator(FanOutConfig{Workers: 3})

	results, err := coord.WriteAll(context.Background(), author, fiveSectionBlueprint(), ModelSelection{})

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Order)
		assert.False(t, r.Failed)
		assert.Contains(t, r.Text, fmt.Sprintf("Section %d", i))
	}
	assert.Equal(t, 5, author.callCount())
}

func TestCoordinator_FailedUnitIsIsolated(t *testing.T) {
	author := &stubAuthor{failOrders: map[int]bool{2: true}}
	coord := NewCoordinator(FanOutConfig{Workers: 2})

	results, err := coord.WriteAll(context.Background(), author, fiveSectionBlueprint(), ModelSelection{})

	require.NoError(t, err)
	require.Len(t, results, 5)

	// The failed unit keeps its slot with a placeholder.
	assert.True(t, results[2].Failed)
	assert.Equal(t, 2, results[2].Order)
	assert.Contains(t, results[2].Text, "Section 2")
	assert.Contains(t, results[2].Text, "could not be generated")

	// Every other unit is untouched.
	for _, i := range []int{0, 1, 3, 4} {
		assert.False(t, results[i].Failed, "section %d should have succeeded", i)
	}
}

func TestCoordinator_AllUnitsFail(t *testing.T) {
	author := &stubAuthor{failOrders: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}}
	coord := NewCoordinator(FanOutConfig{})

	results, err := coord.WriteAll(context.Background(), author, fiveSectionBlueprint(), ModelSelection{})

	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Failed)
		assert.True(t, strings.HasPrefix(r.Text, "## "))
	}
}

func TestCoordinator_Cancellation(t *testing.T) {
	author := &stubAuthor{block: make(chan struct{})}
	coord := NewCoordinator(FanOutConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coord.WriteAll(ctx, author, fiveSectionBlueprint(), ModelSelection{})
	require.ErrorIs(t, err, context.Canceled)
}
