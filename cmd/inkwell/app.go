// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-ai/inkwell/pkg/config"
	"github.com/inkwell-ai/inkwell/services/agents"
	"github.com/inkwell-ai/inkwell/services/llm"
	"github.com/inkwell-ai/inkwell/services/pipeline"
	"github.com/inkwell-ai/inkwell/services/rag"
	"github.com/inkwell-ai/inkwell/services/storage"
)

// app holds the wired-up services a command needs for one invocation.
type app struct {
	cfg      config.Config
	registry *llm.Registry
	research *rag.Store
	articles *storage.ArticleStore
	journal  *storage.RunJournal
	executor *pipeline.Executor
}

// buildApp assembles the full stack from configuration. Optional
// pieces degrade gracefully: a missing OpenAI key just leaves that
// backend unregistered, and a missing research store leaves sections
// drawing on model knowledge alone.
func buildApp(cfg config.Config) (*app, error) {
	logger := slog.Default()

	registry := llm.NewRegistry(cfg.DefaultProvider)

	ollamaClient, err := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:      cfg.Providers.Ollama.BaseURL,
		DefaultModel: cfg.Providers.Ollama.Model,
	})
	if err != nil {
		slog.Warn("Ollama backend not available", "error", err.Error())
	} else {
		registry.Register("ollama", ollamaClient)
	}

	openaiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		DefaultModel: cfg.Providers.OpenAI.Model,
	})
	if err != nil {
		slog.Debug("OpenAI backend not available", "error", err.Error())
	} else {
		registry.Register("openai", openaiClient)
	}

	if len(registry.Providers()) == 0 {
		return nil, fmt.Errorf("no generation backend could be configured")
	}

	var research *rag.Store
	if cfg.Weaviate.Host != "" {
		store, err := rag.NewStore(rag.StoreConfig{
			Host:   cfg.Weaviate.Host,
			Scheme: cfg.Weaviate.Scheme,
		})
		if err != nil {
			slog.Warn("Research store unavailable, continuing without retrieval",
				"host", cfg.Weaviate.Host, "error", err.Error())
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = store.EnsureSchema(ctx)
			cancel()
			if err != nil {
				slog.Warn("Research store schema check failed, continuing without retrieval",
					"host", cfg.Weaviate.Host, "error", err.Error())
			} else {
				research = store
			}
		}
	} else {
		slog.Info("No research store configured, sections draw on model knowledge only")
	}

	articles, err := storage.NewArticleStore(cfg.Storage.ArticlesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}

	journal, err := storage.OpenRunJournal(storage.JournalConfig{
		Path: cfg.Storage.JournalDir,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	// A typed nil inside the interface would dodge the agents' nil
	// checks, so only assign when the store actually exists.
	var researchSink agents.ResearchSink
	var passageSource agents.PassageSource
	if research != nil {
		researchSink = research
		passageSource = research
	}

	agentCfg := func(role string) agents.AgentConfig {
		ref := cfg.Agents.For(role)
		return agents.AgentConfig{Provider: ref.Provider, Model: ref.Model}
	}

	collab := pipeline.Collaborators{
		Planner:   agents.NewPlanner(registry, agentCfg("planner")),
		Discovery: agents.NewDiscovery(registry, agentCfg("discovery")),
		Research:  agents.NewResearcher(registry, researchSink, agentCfg("researcher")),
		Author:    agents.NewWriter(registry, passageSource, agentCfg("writer")),
		Assembler: agents.NewAssembler(registry, articles, agentCfg("assembler")),
		Verifier:  agents.NewVerifier(registry, agentCfg("verifier")),
		Auditor:   agents.NewAuditor(registry, agentCfg("auditor")),
		Refiner:   agents.NewRefiner(registry, articles, agentCfg("refiner")),
	}

	executor, err := pipeline.NewExecutor(collab, pipeline.Config{
		MaxRevisions: cfg.Pipeline.MaxRevisions,
		StepBudget:   cfg.Pipeline.StepBudget,
		FanOut: pipeline.FanOutConfig{
			Workers:           cfg.Pipeline.Workers,
			RequestsPerSecond: cfg.Pipeline.RequestsPerSecond,
			Burst:             cfg.Pipeline.Workers,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline executor: %w", err)
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		research: research,
		articles: articles,
		journal:  journal,
		executor: executor,
	}, nil
}

// close releases resources held by the app.
func (a *app) close() {
	if err := a.journal.Close(); err != nil {
		slog.Warn("Failed to close run journal", "error", err.Error())
	}
}

// executeRun drives one pipeline run and journals its start and
// outcome so `inkwell serve` clients and later CLI calls can see it.
func (a *app) executeRun(ctx context.Context, st pipeline.PipelineState) (pipeline.PipelineState, pipeline.Stage, error) {
	record := storage.RunRecord{
		RunID:     st.RunID,
		Topic:     st.Topic,
		Stage:     string(pipeline.StageIdle),
		StartedAt: time.Now().UTC(),
	}
	if err := a.journal.Put(record); err != nil {
		slog.Warn("Failed to journal run start", "run_id", st.RunID, "error", err.Error())
	}

	final, stage, runErr := a.executor.Run(ctx, st)

	record.Topic = final.Topic
	record.Stage = string(stage)
	record.Revisions = final.Revision.Revisions
	record.Handle = final.ArticleHandle
	record.FinishedAt = time.Now().UTC()
	for _, d := range final.Diagnostics {
		record.Diagnostics = append(record.Diagnostics, string(d))
	}
	if err := a.journal.Put(record); err != nil {
		slog.Warn("Failed to journal run outcome", "run_id", st.RunID, "error", err.Error())
	}

	return final, stage, runErr
}
