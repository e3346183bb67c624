// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Passage is one retrieved chunk of research material.
type Passage struct {
	Content string
	Source  string
}

// Query retrieves the passages most relevant to a search string.
//
// Outputs:
//
//	[]Passage - Up to limit passages, best match first
//	error - Non-nil when the search itself failed
func (s *Store) Query(ctx context.Context, query string, limit int) ([]Passage, error) {
	if limit <= 0 {
		limit = 5
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional { certainty distance }"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(ResearchNoteClass).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("research search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("research search error: %s", result.Errors[0].Message)
	}

	return parsePassages(result.Data)
}

// parsePassages unpacks the GraphQL response shape.
func parsePassages(data map[string]models.JSONObject) ([]Passage, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	rows, ok := get[ResearchNoteClass].([]interface{})
	if !ok {
		return nil, nil
	}

	passages := make([]Passage, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		p := Passage{}
		if content, ok := obj["content"].(string); ok {
			p.Content = content
		}
		if source, ok := obj["source"].(string); ok {
			p.Source = source
		}
		if p.Content != "" {
			passages = append(passages, p)
		}
	}
	return passages, nil
}
