// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rag stores research material in Weaviate and retrieves it
// semantically for the writing agents.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ResearchNoteClass is the Weaviate class holding ingested research.
const ResearchNoteClass = "ResearchNote"

// Store wraps a Weaviate client for research ingest and retrieval.
type Store struct {
	client *weaviate.Client
}

// StoreConfig configures the Weaviate connection.
type StoreConfig struct {
	// Host is the Weaviate endpoint, e.g. "localhost:8080".
	Host string
	// Scheme is "http" or "https".
	Scheme string
}

// NewStore connects to Weaviate.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate host not configured")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	slog.Info("Initializing research store", "host", cfg.Host, "scheme", scheme)
	return &Store{client: client}, nil
}

// researchNoteSchema describes the ResearchNote class.
func researchNoteSchema() *models.Class {
	return &models.Class{
		Class:       ResearchNoteClass,
		Description: "A chunk of research material gathered for an article run",
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The chunk text",
			},
			{
				Name:        "source",
				DataType:    []string{"text"},
				Description: "Query or document the chunk came from",
			},
			{
				Name:        "run_id",
				DataType:    []string{"text"},
				Description: "Pipeline run that ingested the chunk",
			},
			{
				Name:        "ingested_at",
				DataType:    []string{"number"},
				Description: "Unix millis at ingest time",
			},
		},
	}
}

// EnsureSchema creates the ResearchNote class if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(ResearchNoteClass).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.Schema().ClassCreator().
		WithClass(researchNoteSchema()).
		Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %w", ResearchNoteClass, err)
	}

	slog.Info("Created research schema", "class", ResearchNoteClass)
	return nil
}
