// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage persists finished articles to the filesystem and
// keeps a durable journal of pipeline runs in BadgerDB.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ArticleStore writes articles as markdown files under one directory.
//
// Thread Safety:
//
//	ArticleStore is safe for concurrent use across distinct handles.
//	Concurrent writes to the same handle last-write-win.
type ArticleStore struct {
	dir string
}

// NewArticleStore creates the output directory if needed.
func NewArticleStore(dir string) (*ArticleStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("article directory not configured")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create article directory %s: %w", dir, err)
	}
	return &ArticleStore{dir: dir}, nil
}

// Slugify turns a title into a filesystem-safe name.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "article"
	}
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug
}

// Save writes an article and returns its handle. The handle is the
// path relative to the store's directory, "<slug>-<runID>.md".
func (s *ArticleStore) Save(title, runID, content string) (string, error) {
	handle := fmt.Sprintf("%s-%s.md", Slugify(title), runID)
	if err := s.writeFile(handle, content); err != nil {
		return "", err
	}
	slog.Info("Article saved", "handle", handle, "bytes", len(content))
	return handle, nil
}

// Overwrite replaces the article at an existing handle.
func (s *ArticleStore) Overwrite(handle, content string) error {
	if err := s.writeFile(handle, content); err != nil {
		return err
	}
	slog.Info("Article overwritten", "handle", handle, "bytes", len(content))
	return nil
}

// Load reads the article at a handle.
func (s *ArticleStore) Load(handle string) (string, error) {
	path, err := s.resolve(handle)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read article %s: %w", handle, err)
	}
	return string(data), nil
}

func (s *ArticleStore) writeFile(handle, content string) error {
	path, err := s.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		return fmt.Errorf("write article %s: %w", handle, err)
	}
	return nil
}

// resolve rejects handles that escape the store directory.
func (s *ArticleStore) resolve(handle string) (string, error) {
	if handle == "" {
		return "", fmt.Errorf("empty article handle")
	}
	clean := filepath.Clean(handle)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid article handle %q", handle)
	}
	return filepath.Join(s.dir, clean), nil
}
