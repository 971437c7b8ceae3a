// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package badger stores suppressed quest keys in BadgerDB.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"m4o.io/osmquest"
	"m4o.io/osmquest/model"
)

const hiddenPrefix = "hidden/"

// Config configures the store.
type Config struct {
	// Path is the database directory.  Ignored when InMemory is set.
	Path string

	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's own log output.  Nil disables it.
	Logger *slog.Logger
}

// Store is a SuppressionStore backed by BadgerDB.
type Store struct {
	db *badger.DB
}

var _ osmquest.SuppressionStore = (*Store)(nil)

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent suppression store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create suppression store directory %s: %w", cfg.Path, err)
		}

		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open suppression store: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeKey(key model.QuestKey) []byte {
	return []byte(hiddenPrefix + key.String())
}

func decodeKey(raw []byte) (model.QuestKey, error) {
	return model.ParseQuestKey(string(raw[len(hiddenPrefix):]))
}

func encodeTime(at time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(at.UnixMilli()))
}

func decodeTime(raw []byte) (time.Time, error) {
	if len(raw) != 8 {
		return time.Time{}, fmt.Errorf("invalid timestamp of %d bytes", len(raw))
	}

	return time.UnixMilli(int64(binary.BigEndian.Uint64(raw))), nil
}

// Add records key as hidden at the given time.  It reports false, and keeps
// the original time, if key was already hidden.
func (s *Store) Add(ctx context.Context, key model.QuestKey, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	added := false

	err := s.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key)

		_, err := txn.Get(k)
		if err == nil {
			return nil
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		added = true

		return txn.Set(k, encodeTime(at))
	})
	if err != nil {
		return false, fmt.Errorf("unable to hide %s: %w", key, err)
	}

	return added, nil
}

// Remove forgets key.
func (s *Store) Remove(ctx context.Context, key model.QuestKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(encodeKey(key))
	})
	if err != nil {
		return fmt.Errorf("unable to unhide %s: %w", key, err)
	}

	return nil
}

// Contains reports whether key is hidden.
func (s *Store) Contains(ctx context.Context, key model.QuestKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(encodeKey(key))
		switch {
		case err == nil:
			found = true

			return nil
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("unable to look up %s: %w", key, err)
	}

	return found, nil
}

// All returns every entry ordered by key.
func (s *Store) All(ctx context.Context) ([]model.SuppressionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []model.SuppressionEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(hiddenPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			key, err := decodeKey(item.Key())
			if err != nil {
				slog.Warn("skipping unreadable suppression entry", "key", string(item.Key()), "error", err)

				continue
			}

			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			at, err := decodeTime(raw)
			if err != nil {
				return fmt.Errorf("entry %s: %w", key, err)
			}

			entries = append(entries, model.SuppressionEntry{Key: key, HiddenAt: at})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read suppression entries: %w", err)
	}

	return entries, nil
}

// DeleteAll removes every entry and returns how many were removed.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(hiddenPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("unable to read suppression entries: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("unable to delete suppression entries: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("unable to delete suppression entries: %w", err)
	}

	return len(keys), nil
}
