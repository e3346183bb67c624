// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrRunNotFound is returned when a run ID has no journal entry.
var ErrRunNotFound = errors.New("run not found")

var runKeyPrefix = []byte("run:")

// RunRecord is the journal entry for one pipeline run.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Topic       string    `json:"topic"`
	Stage       string    `json:"stage"`
	Revisions   int       `json:"revisions"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}

// RunJournal records pipeline runs in BadgerDB so run status survives
// process restarts.
//
// Thread Safety:
//
//	RunJournal is safe for concurrent use.
type RunJournal struct {
	db *badger.DB
}

// JournalConfig holds configuration for the run journal database.
type JournalConfig struct {
	// Path is the directory for database files. Ignored when InMemory
	// is true.
	Path string

	// InMemory enables in-memory mode. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
}

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct{ logger *slog.Logger }

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenRunJournal opens the journal database.
//
// Outputs:
//
//	*RunJournal - Opened journal. Caller must Close when done.
//	error - Non-nil if the database cannot be opened.
func OpenRunJournal(cfg JournalConfig, logger *slog.Logger) (*RunJournal, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("journal path required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create journal directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}
	return &RunJournal{db: db}, nil
}

// Close releases the underlying database.
func (j *RunJournal) Close() error {
	return j.db.Close()
}

// Put writes or replaces a run record.
func (j *RunJournal) Put(rec RunRecord) error {
	if rec.RunID == "" {
		return errors.New("run record has no run ID")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	key := append(append([]byte(nil), runKeyPrefix...), rec.RunID...)
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Get reads one run record.
func (j *RunJournal) Get(runID string) (RunRecord, error) {
	var rec RunRecord
	key := append(append([]byte(nil), runKeyPrefix...), runID...)

	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns every recorded run.
func (j *RunJournal) List() ([]RunRecord, error) {
	var records []RunRecord

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = runKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec RunRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}
