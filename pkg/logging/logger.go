// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging builds the process-wide slog logger.
//
// The default is human-readable text on stderr, which keeps stdout
// clean for command output. When a log directory is configured the
// same records are also written as JSON to a per-service, per-day
// file for later inspection.
//
// # Basic Usage
//
//	logger, err := logging.New(logging.Config{Service: "inkwell"})
//	if err != nil { ... }
//	defer logger.Close()
//	slog.SetDefault(logger.Slog())
//
// # Thread Safety
//
// Logger is safe for concurrent use; slog handlers serialize their
// own writes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config controls logger construction.
type Config struct {
	// Service names the log file, e.g. "inkwell" yields
	// inkwell_2026-08-29.log. Empty means "inkwell".
	Service string

	// Debug lowers the minimum level from Info to Debug.
	Debug bool

	// LogDir enables JSON file logging when non-empty. The directory
	// is created if needed.
	LogDir string

	// Stderr overrides the text output destination. Nil means
	// os.Stderr. Tests use this to capture output.
	Stderr io.Writer
}

// Logger wraps an slog.Logger with lifecycle for its file sink.
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

// New builds a Logger from the config.
func New(cfg Config) (*Logger, error) {
	if cfg.Service == "" {
		cfg.Service = "inkwell"
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}

	var file *os.File
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("%s_%s.log", cfg.Service, time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = &teeHandler{handlers: handlers}
	}

	return &Logger{
		logger: slog.New(handler).With(slog.String("service", cfg.Service)),
		file:   file,
	}, nil
}

// Slog returns the underlying slog.Logger for use and SetDefault.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// Close syncs and closes the file sink, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
