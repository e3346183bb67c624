// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/services/pipeline"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "prose around object",
			in:   "Here is the plan:\n{\"a\": 1}\nLet me know!",
			want: `{"a": 1}`,
		},
		{
			name: "array",
			in:   `[1, 2, 3]`,
			want: `[1, 2, 3]`,
		},
		{
			name: "no payload",
			in:   "I cannot help with that.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Passed bool `json:"passed"`
	}
	require.NoError(t, decodeJSON("```json\n{\"passed\": true}\n```", &out))
	assert.True(t, out.Passed)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	var out map[string]interface{}

	err := decodeJSON("no json here", &out)
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)

	err = decodeJSON("{broken", &out)
	assert.ErrorIs(t, err, pipeline.ErrMalformedOutput)
}
