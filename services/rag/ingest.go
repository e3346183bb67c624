// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate/entities/models"
)

var (
	chunkSize    = 1000
	chunkOverlap = chunkSize / 10

	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
)

// splitNotes chunks research text along markdown structure.
func splitNotes(content string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(markdownSeparators),
	)
	return splitter.SplitText(content)
}

// chunkID derives a stable UUID from chunk content, so re-ingesting
// the same material overwrites instead of duplicating.
func chunkID(chunk string) string {
	hash := sha256.Sum256([]byte(chunk))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

// buildObjects converts chunks into Weaviate batch objects.
func buildObjects(chunks []string, source, runID string) []*models.Object {
	now := time.Now().UnixMilli()
	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class: ResearchNoteClass,
			ID:    strfmt.UUID(chunkID(chunk)),
			Properties: map[string]interface{}{
				"content":     chunk,
				"source":      fmt.Sprintf("%s_part_%d", source, i+1),
				"run_id":      runID,
				"ingested_at": now,
			},
		}
	}
	return objects
}

// Ingest chunks research material and batch-imports it.
//
// Inputs:
//
//	ctx - Cancels the import
//	source - Query or document name the material answers
//	content - Raw research text
//	runID - Owning pipeline run
//
// Outputs:
//
//	int - Number of chunks successfully stored
//	error - Non-nil when splitting or the batch import failed outright
func (s *Store) Ingest(ctx context.Context, source, content, runID string) (int, error) {
	chunks, err := splitNotes(content)
	if err != nil {
		slog.Error("Failed to split research text", "source", source, "error", err)
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "source", source)
		return 0, nil
	}
	slog.Info("Split research into chunks", "source", source, "chunk_count", len(chunks))

	batcher := s.client.Batch().ObjectsBatcher()
	batcher.WithObjects(buildObjects(chunks, source, runID)...)

	resp, err := batcher.Do(ctx)
	if err != nil {
		slog.Error("Failed to batch import research", "source", source, "error", err)
		return 0, fmt.Errorf("failed to save research to weaviate: %w", err)
	}

	stored := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stored++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in research batch item", "source", source, "error", errItem.Message)
			}
		} else {
			slog.Warn("Failed research batch item, no error provided", "source", source)
		}
	}

	slog.Info("Research ingested", "source", source, "stored", stored)
	return stored, nil
}
