// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists per-file content hashes between runs so watch
// mode can skip files whose content has not changed.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// hashPrefix namespaces hash records within the key space.
const hashPrefix = "hash:"

// ErrClosed indicates an operation on a closed store.
var ErrClosed = errors.New("hash store is closed")

// Config holds settings for the hash store.
type Config struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path string

	// InMemory runs the store without disk persistence. Used in tests and
	// one-shot runs that do not need incremental state.
	InMemory bool

	// SyncWrites forces fsync on every write. Slower but durable.
	SyncWrites bool

	// Logger receives database-internal log output. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns a persistent on-disk configuration.
func DefaultConfig(path string) Config {
	return Config{Path: path}
}

// InMemoryConfig returns a non-persistent configuration.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// HashStore records the content hash last seen per source file.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type HashStore struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(cfg Config) (*HashStore, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store path must not be empty")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(&badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open hash store: %w", err)
	}
	return &HashStore{db: db}, nil
}

// GetHash returns the stored hash for a file path and whether one exists.
func (s *HashStore) GetHash(path string) (string, bool, error) {
	if s.db.IsClosed() {
		return "", false, ErrClosed
	}

	var hash string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hashPrefix + path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get hash for %s: %w", path, err)
	}
	return hash, true, nil
}

// PutHash records the hash for a file path, replacing any prior value.
func (s *HashStore) PutHash(path, hash string) error {
	if s.db.IsClosed() {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hashPrefix+path), []byte(hash))
	})
	if err != nil {
		return fmt.Errorf("put hash for %s: %w", path, err)
	}
	return nil
}

// DeleteHash removes the record for a file path. Missing keys are not an
// error.
func (s *HashStore) DeleteHash(path string) error {
	if s.db.IsClosed() {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(hashPrefix + path))
	})
	if err != nil {
		return fmt.Errorf("delete hash for %s: %w", path, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *HashStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// badgerLogger adapts database-internal logging to slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}
