// Package analytics records site sessions and answers dashboard queries over them.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

const (
	sessionPrefix     = "session:"    // session:<started_at>:<id> -> JSON
	sessionByIDPrefix = "session_id:" // session_id:<id> -> primary key

	// keyTimeLayout is fixed width so keys sort chronologically.
	keyTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrSessionNotFound is returned when no session has the requested ID.
var ErrSessionNotFound = store.ErrNotFound.WithMessage("session not found")

// Options configures the session store.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM, for tests and throwaway instances.
	InMemory bool
	// Retention expires sessions this long after they are written. Zero keeps them forever.
	Retention time.Duration
	// ReadOnly opens an existing directory without taking the write lock,
	// so inspection tools can run next to the server.
	ReadOnly bool
}

// Store persists sessions in Badger, keyed by start time for cheap window scans.
type Store struct {
	db        *badger.DB
	logger    *slog.Logger
	retention time.Duration
}

// Open opens (or creates) the session store.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else if opts.ReadOnly {
		bopts = bopts.WithReadOnly(true)
	}
	bopts.Logger = nil // Badger's internal logging is too chatty
	// Faster startup on reopen; a read-only handle cannot compact.
	bopts.CompactL0OnClose = !opts.ReadOnly

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("analytics store opened", "path", opts.Path, "in_memory", opts.InMemory, "retention", opts.Retention)
	return &Store{db: db, logger: logger, retention: opts.Retention}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func primaryKey(sess *domain.Session) []byte {
	return []byte(sessionPrefix + sess.StartedAt.UTC().Format(keyTimeLayout) + ":" + sess.ID)
}

func timeKey(t time.Time) []byte {
	return []byte(sessionPrefix + t.UTC().Format(keyTimeLayout))
}

// Save inserts or replaces a session. Changing StartedAt moves the record.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := primaryKey(sess)
	idKey := []byte(sessionByIDPrefix + sess.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey)
		switch {
		case err == nil:
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if string(old) != string(key) {
				if err := txn.Delete(old); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("delete moved session: %w", err)
				}
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.SetEntry(s.entry(key, data)); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		if err := txn.SetEntry(s.entry(idKey, key)); err != nil {
			return fmt.Errorf("set session index: %w", err)
		}
		return nil
	})
}

func (s *Store) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if s.retention > 0 {
		e = e.WithTTL(s.retention)
	}
	return e
}

// Get returns a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		idItem, err := txn.Get([]byte(sessionByIDPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		key, err := idItem.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Stream yields sessions that started in [from, to), oldest first.
// A zero from or to leaves that side of the window open.
func (s *Store) Stream(ctx context.Context, from, to time.Time) iter.Seq2[*domain.Session, error] {
	return func(yield func(*domain.Session, error) bool) {
		_ = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(sessionPrefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			start := []byte(sessionPrefix)
			if !from.IsZero() {
				start = timeKey(from)
			}
			var end []byte
			if !to.IsZero() {
				end = timeKey(to)
			}

			for it.Seek(start); it.ValidForPrefix(opts.Prefix); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				key := it.Item().Key()
				if end != nil && string(key) >= string(end) {
					return nil
				}

				var sess domain.Session
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &sess)
				})
				if err != nil {
					if !yield(nil, fmt.Errorf("decode %s: %w", key, err)) {
						return nil
					}
					continue
				}

				if !yield(&sess, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// List collects Stream into a slice.
func (s *Store) List(ctx context.Context, from, to time.Time) ([]*domain.Session, error) {
	sessions := []*domain.Session{}
	for sess, err := range s.Stream(ctx, from, to) {
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// RunGC reclaims value log space on an interval until ctx is cancelled.
// Expired sessions only free disk once their value log file is rewritten.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) && !errors.Is(err, badger.ErrGCInMemoryMode) {
						s.logger.Warn("analytics value log GC failed", "error", err)
					}
					break
				}
			}
		}
	}
}
