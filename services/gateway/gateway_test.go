// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/services/pipeline"
	"github.com/inkwell-ai/inkwell/services/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ----------------------------------------------------------------------------
// Test fixtures
// ----------------------------------------------------------------------------

type runnerFunc func(ctx context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error)

func (f runnerFunc) Run(ctx context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
	return f(ctx, st)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJournal(t *testing.T) *storage.RunJournal {
	t.Helper()
	journal, err := storage.OpenRunJournal(storage.JournalConfig{InMemory: true}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func newTestServer(t *testing.T, runner Runner) (*Server, *storage.RunJournal) {
	t.Helper()
	journal := testJournal(t)
	return NewServer(runner, journal, quietLogger()), journal
}

func completingRunner(handle string) Runner {
	return runnerFunc(func(_ context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
		st.ArticleHandle = handle
		st.Revision.Revisions = 2
		return st, pipeline.StageComplete, nil
	})
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

// ----------------------------------------------------------------------------
// Tests
// ----------------------------------------------------------------------------

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, completingRunner("a.md"))

	rec := doJSON(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_CreateArticle_RunsToCompletion(t *testing.T) {
	s, journal := newTestServer(t, completingRunner("articles/heat-pumps.md"))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"topic":"Heat Pumps 101"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.RunID)
	assert.Equal(t, "accepted", accepted.Status)

	s.Drain()

	record, err := journal.Get(accepted.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Heat Pumps 101", record.Topic)
	assert.Equal(t, string(pipeline.StageComplete), record.Stage)
	assert.Equal(t, "articles/heat-pumps.md", record.Handle)
	assert.Equal(t, 2, record.Revisions)
	assert.False(t, record.FinishedAt.IsZero())
}

func TestServer_CreateArticle_RequiresTopicOrDiscover(t *testing.T) {
	s, _ := newTestServer(t, completingRunner("a.md"))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"niche":"home energy"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "topic")
}

func TestServer_CreateArticle_DiscoverModeNeedsNoTopic(t *testing.T) {
	s, journal := newTestServer(t, runnerFunc(func(_ context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
		st.Topic = "Best Heat Pumps of 2026"
		return st, pipeline.StageComplete, nil
	}))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"discover":true,"niche":"home energy"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	s.Drain()

	record, err := journal.Get(accepted.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Best Heat Pumps of 2026", record.Topic)
}

func TestServer_CreateArticle_SanitizesTopic(t *testing.T) {
	var seen string
	s, _ := newTestServer(t, runnerFunc(func(_ context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
		seen = st.Topic
		return st, pipeline.StageComplete, nil
	}))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"topic":"  heat   pumps  101  "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.Drain()

	assert.Equal(t, "heat pumps 101", seen)
}

func TestServer_CreateArticle_RejectsControlCharacters(t *testing.T) {
	s, _ := newTestServer(t, completingRunner("a.md"))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", "{\"topic\":\"heat\x00pumps\"}")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreateArticle_BadJSON(t *testing.T) {
	s, _ := newTestServer(t, completingRunner("a.md"))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"topic":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RunFailureIsJournaled(t *testing.T) {
	s, journal := newTestServer(t, runnerFunc(func(_ context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
		st.Diagnostics = append(st.Diagnostics, pipeline.DiagStepBudget)
		return st, pipeline.StageError, errors.New("planner output was not valid JSON")
	}))

	rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"topic":"Solar Inverters"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	s.Drain()

	record, err := journal.Get(accepted.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(pipeline.StageError), record.Stage)
	assert.Contains(t, record.Diagnostics, string(pipeline.DiagStepBudget))
	assert.Empty(t, record.Handle)
}

func TestServer_GetRun_NotFound(t *testing.T) {
	s, _ := newTestServer(t, completingRunner("a.md"))

	rec := doJSON(t, s, http.MethodGet, "/v1/articles/nope123", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListRuns(t *testing.T) {
	s, journal := newTestServer(t, completingRunner("a.md"))

	for _, topic := range []string{"First Topic", "Second Topic"} {
		rec := doJSON(t, s, http.MethodPost, "/v1/articles", `{"topic":"`+topic+`"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	s.Drain()

	rec := doJSON(t, s, http.MethodGet, "/v1/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Runs  []storage.RunRecord `json:"runs"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 2, listed.Count)
	assert.Len(t, listed.Runs, 2)

	records, err := journal.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
