// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for user-provided text.
//
// Topics and niches flow into prompts, file names, and journal keys,
// so they are validated before any of that happens: control characters
// are rejected and length is capped.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// MaxTopicLength caps topic and niche input. Anything longer is a
	// pasted paragraph, not a topic.
	MaxTopicLength = 300
)

// ValidateTopic checks a topic or niche string.
//
// Valid input is non-empty after trimming, at most MaxTopicLength
// runes, and free of control characters.
func ValidateTopic(topic string) error {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if n := len([]rune(trimmed)); n > MaxTopicLength {
		return fmt.Errorf("topic is too long: %d characters (max %d)", n, MaxTopicLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) && r != '\t' {
			return fmt.Errorf("topic contains control characters")
		}
	}
	return nil
}

// SanitizeTopic normalizes and validates a topic or niche string.
// Internal whitespace runs collapse to single spaces.
func SanitizeTopic(topic string) (string, error) {
	normalized := strings.Join(strings.Fields(topic), " ")
	if err := ValidateTopic(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
