// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkwell-ai/inkwell/services/pipeline"
)

// decodeJSON unmarshals a model response into v, tolerating the usual
// decoration: markdown code fences and prose before or after the JSON
// payload. Failures are tagged as malformed collaborator output.
func decodeJSON(raw string, v interface{}) error {
	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("%w: no JSON payload in response", pipeline.ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrMalformedOutput, err)
	}
	return nil
}

// extractJSON pulls the outermost JSON object or array out of a model
// response. Returns "" when none is found.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip a fenced block if the whole payload is wrapped in one.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start, closer := objStart, byte('}')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start, closer = arrStart, ']'
	}
	if start < 0 {
		return ""
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
