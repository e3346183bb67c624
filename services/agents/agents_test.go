// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
	"github.com/inkwell-ai/inkwell/services/rag"
)

// scriptedClient returns queued responses in order, then repeats the
// last one. It records every prompt it saw.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	models    []string
}

func (c *scriptedClient) Generate(ctx context.Context, model, prompt string, params llm.GenerationParams) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	c.models = append(c.models, model)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	out := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return out, nil
}

func testRegistry(c *scriptedClient) *llm.Registry {
	r := llm.NewRegistry("test")
	r.Register("test", c)
	return r
}

// ----------------------------------------------------------------------------
// Planner
// ----------------------------------------------------------------------------

const blueprintJSON = "```json\n" + `{
  "title": "Heat Pumps for Old Houses",
  "audience": "homeowners",
  "sections": [
    {"heading": "Why Heat Pumps", "description": "intro", "word_count": 250, "research_queries": ["heat pump efficiency"]},
    {"heading": "Retrofit Basics", "description": "how", "word_count": 400, "research_queries": ["retrofit cost"]}
  ]
}` + "\n```"

func TestPlanner_Plan(t *testing.T) {
	client := &scriptedClient{responses: []string{blueprintJSON}}
	planner := NewPlanner(testRegistry(client), AgentConfig{Provider: "test", Model: "m1"})

	bp, err := planner.Plan(context.Background(), "heat pumps", false, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, "Heat Pumps for Old Houses", bp.Title)
	require.Len(t, bp.Sections, 2)
	assert.Equal(t, 400, bp.Sections[1].WordCount)
	assert.Equal(t, []string{"m1"}, client.models)
}

func TestPlanner_AffiliatePromptDiffers(t *testing.T) {
	client := &scriptedClient{responses: []string{blueprintJSON}}
	planner := NewPlanner(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := planner.Plan(context.Background(), "heat pumps", true, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Contains(t, client.prompts[0], "affiliate")
}

func TestPlanner_UnavailableBackend(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	planner := NewPlanner(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := planner.Plan(context.Background(), "t", false, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrCollaboratorUnavailable)
}

func TestPlanner_MalformedResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{"sure, here is an outline in prose"}}
	planner := NewPlanner(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := planner.Plan(context.Background(), "t", false, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

func TestPlanner_SelectionOverridesDefaults(t *testing.T) {
	client := &scriptedClient{responses: []string{blueprintJSON}}
	planner := NewPlanner(testRegistry(client), AgentConfig{Provider: "test", Model: "default-model"})

	_, err := planner.Plan(context.Background(), "t", false, pipeline.ModelSelection{Model: "run-model"})

	require.NoError(t, err)
	assert.Equal(t, []string{"run-model"}, client.models)
}

// ----------------------------------------------------------------------------
// Discovery
// ----------------------------------------------------------------------------

func TestDiscovery_SortsByScore(t *testing.T) {
	client := &scriptedClient{responses: []string{`{
		"candidates": [
			{"topic": "meh", "score": 0.3},
			{"topic": "best", "score": 0.95},
			{"topic": "ok", "score": 0.6}
		]
	}`}}
	disc := NewDiscovery(testRegistry(client), AgentConfig{Provider: "test"})

	res, err := disc.Discover(context.Background(), "home energy", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, "best", res.Topic)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "best", res.Candidates[0].Topic)
}

func TestDiscovery_NoCandidates(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"candidates": []}`}}
	disc := NewDiscovery(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := disc.Discover(context.Background(), "n", pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

// ----------------------------------------------------------------------------
// Researcher
// ----------------------------------------------------------------------------

type fakeSink struct {
	mu      sync.Mutex
	sources []string
	perCall int
	err     error
}

func (s *fakeSink) Ingest(ctx context.Context, source, content, runID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.sources = append(s.sources, source)
	return s.perCall, nil
}

func TestResearcher_CountsStoredChunks(t *testing.T) {
	client := &scriptedClient{responses: []string{"notes about things"}}
	sink := &fakeSink{perCall: 3}
	r := NewResearcher(testRegistry(client), sink, AgentConfig{Provider: "test"})

	n, err := r.Research(context.Background(), []string{"q1", "q2"}, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []string{"q1", "q2"}, sink.sources)
}

func TestResearcher_AllQueriesFailing(t *testing.T) {
	client := &scriptedClient{err: errors.New("down")}
	r := NewResearcher(testRegistry(client), &fakeSink{}, AgentConfig{Provider: "test"})

	_, err := r.Research(context.Background(), []string{"q1", "q2"}, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrCollaboratorUnavailable)
}

func TestResearcher_NoSinkIsUnavailable(t *testing.T) {
	client := &scriptedClient{responses: []string{"notes"}}
	r := NewResearcher(testRegistry(client), nil, AgentConfig{Provider: "test"})

	_, err := r.Research(context.Background(), []string{"q1"}, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrCollaboratorUnavailable)
	assert.Empty(t, client.prompts)
}

func TestResearcher_IngestFailureIsPartial(t *testing.T) {
	client := &scriptedClient{responses: []string{"notes"}}
	sink := &fakeSink{err: errors.New("weaviate down")}
	r := NewResearcher(testRegistry(client), sink, AgentConfig{Provider: "test"})

	// Every ingest fails, so the research round fails as a whole.
	_, err := r.Research(context.Background(), []string{"q1"}, pipeline.ModelSelection{})
	assert.Error(t, err)
}

// ----------------------------------------------------------------------------
// Writer
// ----------------------------------------------------------------------------

type fakeSource struct{ passages []rag.Passage }

func (s *fakeSource) Query(ctx context.Context, query string, limit int) ([]rag.Passage, error) {
	return s.passages, nil
}

func TestWriter_WriteSection(t *testing.T) {
	client := &scriptedClient{responses: []string{"## Retrofit Basics\n\nPlenty of detail."}}
	w := NewWriter(testRegistry(client), &fakeSource{passages: []rag.Passage{{Content: "heat pumps reach COP 4"}}}, AgentConfig{Provider: "test"})

	spec := pipeline.SectionSpec{Heading: "Retrofit Basics", Description: "how", WordCount: 300, ResearchQueries: []string{"retrofit cost"}}
	res, err := w.WriteSection(context.Background(), spec, 1, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Order)
	assert.False(t, res.Failed)
	assert.Contains(t, res.Text, "## Retrofit Basics")
	assert.Contains(t, client.prompts[0], "heat pumps reach COP 4")
}

func TestWriter_AddsMissingHeading(t *testing.T) {
	client := &scriptedClient{responses: []string{"Body without a heading."}}
	w := NewWriter(testRegistry(client), nil, AgentConfig{Provider: "test"})

	res, err := w.WriteSection(context.Background(), pipeline.SectionSpec{Heading: "Intro"}, 0, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Contains(t, res.Text, "## Intro\n\nBody without a heading.")
}

func TestWriter_EmptyBodyIsMalformed(t *testing.T) {
	client := &scriptedClient{responses: []string{"   "}}
	w := NewWriter(testRegistry(client), nil, AgentConfig{Provider: "test"})

	_, err := w.WriteSection(context.Background(), pipeline.SectionSpec{Heading: "Intro"}, 0, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

// ----------------------------------------------------------------------------
// Assembler
// ----------------------------------------------------------------------------

type fakeArticleSink struct {
	saved  string
	handle string
	err    error
}

func (s *fakeArticleSink) Save(title, runID, content string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = content
	s.handle = title + "-" + runID + ".md"
	return s.handle, nil
}

func TestAssembler_PolishAndPersist(t *testing.T) {
	client := &scriptedClient{responses: []string{"# Heat Pumps\n\n## One\n\na\n\n## Two\n\nb"}}
	sink := &fakeArticleSink{}
	a := NewAssembler(testRegistry(client), sink, AgentConfig{Provider: "test"})

	bp := &pipeline.Blueprint{Title: "Heat Pumps", Sections: []pipeline.SectionSpec{{Heading: "One"}}}
	sections := []pipeline.SectionResult{
		{Order: 0, Text: "## One\n\na"},
		{Order: 1, Text: "## Two\n\nb"},
	}

	article, handle, err := a.Assemble(context.Background(), sections, bp, "run1", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, sink.handle, handle)
	assert.Equal(t, article, sink.saved)
	assert.Contains(t, article, "# Heat Pumps")
}

func TestAssembler_PolishFailureKeepsDraft(t *testing.T) {
	client := &scriptedClient{err: errors.New("llm down")}
	sink := &fakeArticleSink{}
	a := NewAssembler(testRegistry(client), sink, AgentConfig{Provider: "test"})

	bp := &pipeline.Blueprint{Title: "Heat Pumps", Sections: []pipeline.SectionSpec{{Heading: "One"}}}
	article, _, err := a.Assemble(context.Background(), []pipeline.SectionResult{{Order: 0, Text: "## One\n\na"}}, bp, "run1", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Contains(t, article, "# Heat Pumps")
	assert.Contains(t, article, "## One")
}

func TestAssembler_NoSections(t *testing.T) {
	a := NewAssembler(testRegistry(&scriptedClient{}), &fakeArticleSink{}, AgentConfig{Provider: "test"})

	_, _, err := a.Assemble(context.Background(), nil, &pipeline.Blueprint{Title: "T"}, "r", pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

// ----------------------------------------------------------------------------
// Verifier and Auditor
// ----------------------------------------------------------------------------

func TestVerifier_Clean(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"has_errors": false, "corrections": ""}`}}
	v := NewVerifier(testRegistry(client), AgentConfig{Provider: "test"})

	rep, err := v.VerifyFacts(context.Background(), "article", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.False(t, rep.HasErrors())
}

func TestVerifier_FindsErrors(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"has_errors": true, "corrections": "the launch year is 2019, not 2021"}`}}
	v := NewVerifier(testRegistry(client), AgentConfig{Provider: "test"})

	rep, err := v.VerifyFacts(context.Background(), "article", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.True(t, rep.HasErrors())
	assert.Contains(t, rep.Corrections, "2019")
}

func TestVerifier_ErrorsWithoutCorrections(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"has_errors": true, "corrections": ""}`}}
	v := NewVerifier(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := v.VerifyFacts(context.Background(), "article", pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

func TestAuditor_Pass(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"passed": true, "feedback": "nice work"}`}}
	a := NewAuditor(testRegistry(client), AgentConfig{Provider: "test"})

	rep, err := a.Audit(context.Background(), "article", &pipeline.Blueprint{Title: "T"}, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.True(t, rep.Passed)
	assert.Empty(t, rep.Feedback)
}

func TestAuditor_FailWithFeedback(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"passed": false, "feedback": "section two is thin"}`}}
	a := NewAuditor(testRegistry(client), AgentConfig{Provider: "test"})

	rep, err := a.Audit(context.Background(), "article", &pipeline.Blueprint{Title: "T"}, pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.False(t, rep.Passed)
	assert.Equal(t, "section two is thin", rep.Feedback)
}

func TestAuditor_FailWithoutFeedback(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"passed": false, "feedback": ""}`}}
	a := NewAuditor(testRegistry(client), AgentConfig{Provider: "test"})

	_, err := a.Audit(context.Background(), "article", &pipeline.Blueprint{Title: "T"}, pipeline.ModelSelection{})
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}

// ----------------------------------------------------------------------------
// Refiner
// ----------------------------------------------------------------------------

type fakeRewriter struct {
	handle  string
	content string
	err     error
}

func (r *fakeRewriter) Overwrite(handle, content string) error {
	if r.err != nil {
		return r.err
	}
	r.handle = handle
	r.content = content
	return nil
}

func TestRefiner_RewritesAndPersists(t *testing.T) {
	client := &scriptedClient{responses: []string{"# T\n\nrevised body"}}
	sink := &fakeRewriter{}
	r := NewRefiner(testRegistry(client), sink, AgentConfig{Provider: "test"})

	out, err := r.Refine(context.Background(), "# T\n\nold body", "fix tone", "t-run1.md", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Contains(t, out, "revised body")
	assert.Equal(t, "t-run1.md", sink.handle)
	assert.Equal(t, out, sink.content)
	assert.Contains(t, client.prompts[0], "fix tone")
}

func TestRefiner_PersistFailureKeepsRewrite(t *testing.T) {
	client := &scriptedClient{responses: []string{"revised"}}
	sink := &fakeRewriter{err: errors.New("disk full")}
	r := NewRefiner(testRegistry(client), sink, AgentConfig{Provider: "test"})

	out, err := r.Refine(context.Background(), "old", "f", "h.md", pipeline.ModelSelection{})

	require.NoError(t, err)
	assert.Equal(t, "revised", out)
}
