// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gateway exposes article generation over HTTP. Runs are
// accepted asynchronously: the POST handler journals the run and
// returns immediately, and clients poll the run record for progress.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/inkwell-ai/inkwell/pkg/validation"
	"github.com/inkwell-ai/inkwell/services/pipeline"
	"github.com/inkwell-ai/inkwell/services/storage"
)

// defaultRunTimeout bounds a background article run. Generation over a
// local model can be slow, but a run should never outlive the hour.
const defaultRunTimeout = 60 * time.Minute

// Runner executes one article pipeline run to completion.
// *pipeline.Executor satisfies it; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error)
}

// GenerateRequest is the POST /v1/articles body.
type GenerateRequest struct {
	Topic         string `json:"topic"`
	Niche         string `json:"niche"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Discover      bool   `json:"discover"`
	OnlyDiscovery bool   `json:"only_discovery"`
	Affiliate     bool   `json:"affiliate"`
}

// Server is the HTTP front end for the article pipeline.
//
// Thread Safety:
//
//	Server is safe for concurrent use. Each accepted run executes on
//	its own goroutine against its own PipelineState copy; shared
//	progress lives in the run journal.
type Server struct {
	runner     Runner
	journal    *storage.RunJournal
	logger     *slog.Logger
	engine     *gin.Engine
	runTimeout time.Duration
	wg         sync.WaitGroup
}

// NewServer builds a Server and registers its routes.
func NewServer(runner Runner, journal *storage.RunJournal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:     runner,
		journal:    journal,
		logger:     logger,
		runTimeout: defaultRunTimeout,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/health", s.healthCheck)

	v1 := router.Group("/v1")
	{
		v1.POST("/articles", s.createArticle)
		v1.GET("/articles", s.listRuns)
		v1.GET("/articles/:runId", s.getRun)
	}

	s.engine = router
	return s
}

// Handler returns the router for mounting in tests or custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on addr and blocks until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Drain blocks until every accepted background run has finished.
func (s *Server) Drain() {
	s.wg.Wait()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createArticle accepts a generation request, journals it, and kicks
// off the pipeline in the background.
func (s *Server) createArticle(c *gin.Context) {
	var req GenerateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Topic == "" && !req.Discover {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either a topic or discover mode is required"})
		return
	}
	if req.Topic != "" {
		topic, err := validation.SanitizeTopic(req.Topic)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Topic = topic
	}
	if req.Niche != "" {
		niche, err := validation.SanitizeTopic(req.Niche)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Niche = niche
	}

	st := pipeline.PipelineState{
		RunID:         pipeline.NewRunID(),
		Topic:         req.Topic,
		Niche:         req.Niche,
		Provider:      req.Provider,
		Model:         req.Model,
		Discover:      req.Discover,
		OnlyDiscovery: req.OnlyDiscovery,
		Affiliate:     req.Affiliate,
	}

	record := storage.RunRecord{
		RunID:     st.RunID,
		Topic:     st.Topic,
		Stage:     string(pipeline.StageIdle),
		StartedAt: time.Now().UTC(),
	}
	if err := s.journal.Put(record); err != nil {
		s.logger.Error("failed to journal run", slog.String("run_id", st.RunID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record run"})
		return
	}

	s.wg.Add(1)
	go s.executeRun(st, record)

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": st.RunID,
		"status": "accepted",
	})
}

// executeRun drives one pipeline run and journals the outcome. The run
// gets a fresh context: it must not die with the HTTP request that
// started it.
func (s *Server) executeRun(st pipeline.PipelineState, record storage.RunRecord) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	final, stage, err := s.runner.Run(ctx, st)

	record.Topic = final.Topic
	record.Stage = string(stage)
	record.Revisions = final.Revision.Revisions
	record.Handle = final.ArticleHandle
	record.FinishedAt = time.Now().UTC()
	for _, d := range final.Diagnostics {
		record.Diagnostics = append(record.Diagnostics, string(d))
	}

	if err != nil {
		s.logger.Error("article run failed",
			slog.String("run_id", st.RunID),
			slog.String("stage", string(stage)),
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("article run finished",
			slog.String("run_id", st.RunID),
			slog.String("stage", string(stage)),
			slog.String("handle", final.ArticleHandle))
	}

	if jerr := s.journal.Put(record); jerr != nil {
		s.logger.Error("failed to journal run outcome",
			slog.String("run_id", st.RunID), slog.String("error", jerr.Error()))
	}
}

// getRun returns the journal record for one run.
func (s *Server) getRun(c *gin.Context) {
	runID := c.Param("runId")
	record, err := s.journal.Get(runID)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		s.logger.Error("failed to load run", slog.String("run_id", runID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// listRuns returns every journaled run.
func (s *Server) listRuns(c *gin.Context) {
	records, err := s.journal.List()
	if err != nil {
		s.logger.Error("failed to list runs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records)})
}
