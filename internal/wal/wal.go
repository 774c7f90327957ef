// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package wal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

var (
	// ErrWALClosed is returned by every operation after Close.
	ErrWALClosed = errors.New("wal is closed")

	// ErrEntryNotFound is returned when nothing is pending for a vessel.
	ErrEntryNotFound = errors.New("wal entry not found")

	// ErrInvalidPosition is returned when a position has no identifier.
	ErrInvalidPosition = errors.New("position has no mmsi")
)

const prefixPending = "pending:"

// pendingKey is one key per vessel: a newer position replaces an older one.
func pendingKey(mmsi string) []byte {
	return []byte(prefixPending + mmsi)
}

// Entry is one spooled position write.
type Entry struct {
	ID            string                `json:"id"`
	Position      models.VesselPosition `json:"position"`
	CreatedAt     time.Time             `json:"created_at"`
	Attempts      int                   `json:"attempts"`
	LastAttemptAt time.Time             `json:"last_attempt_at,omitempty"`
	LastError     string                `json:"last_error,omitempty"`
}

// Stats is a point-in-time view of the spool.
type Stats struct {
	PendingCount int64
	DBSizeBytes  int64
}

// BadgerWAL spools failed position writes in BadgerDB.
type BadgerWAL struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool

	now func() time.Time
}

// Open opens (or creates) the spool described by cfg.
func Open(cfg Config) (*BadgerWAL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAL config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites && !cfg.InMemory
	opts.Compression = options.Snappy
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	w := &BadgerWAL{
		db:     db,
		config: cfg,
		now:    time.Now,
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", opts.SyncWrites).
		Msg("WAL opened")
	w.refreshPending()
	return w, nil
}

// Config returns the configuration the spool was opened with.
func (w *BadgerWAL) Config() Config {
	return w.config
}

func (w *BadgerWAL) checkOpen() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWALClosed
	}
	return nil
}

// Write spools pos for a later retry, replacing an older pending
// position for the same vessel. It satisfies ais.Spool.
func (w *BadgerWAL) Write(_ context.Context, pos models.VesselPosition) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if pos.MMSI == "" {
		return ErrInvalidPosition
	}

	entry := &Entry{
		ID:        uuid.New().String(),
		Position:  pos,
		CreatedAt: w.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	var existed, superseded bool
	key := pendingKey(pos.MMSI)
	err = w.db.Update(func(txn *badger.Txn) error {
		current, err := getEntry(txn, key)
		switch {
		case errors.Is(err, ErrEntryNotFound):
		case err != nil:
			return err
		default:
			existed = true
			if positionAfter(current.Position, pos) {
				superseded = true
				return nil
			}
		}

		e := badger.NewEntry(key, data)
		if w.config.EntryTTL > 0 {
			e = e.WithTTL(w.config.EntryTTL)
		}
		return txn.SetEntry(e)
	})
	metrics.RecordWAL("write", err)
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	switch {
	case superseded:
		logging.Debug().Str("mmsi", pos.MMSI).Msg("Spool already holds a newer position")
	case existed:
		logging.Debug().Str("entry_id", entry.ID).Str("mmsi", pos.MMSI).Msg("Spooled position replaced")
	default:
		metrics.WALPendingEntries.Inc()
		logging.Debug().Str("entry_id", entry.ID).Str("mmsi", pos.MMSI).Msg("Position spooled for retry")
	}
	return nil
}

// positionAfter reports whether a is a later fix than b. Unparseable
// timestamps never win.
func positionAfter(a, b models.VesselPosition) bool {
	ta, err := time.Parse(models.TimestampLayout, a.Timestamp)
	if err != nil {
		return false
	}
	tb, err := time.Parse(models.TimestampLayout, b.Timestamp)
	if err != nil {
		return true
	}
	return ta.After(tb)
}

func getEntry(txn *badger.Txn, key []byte) (*Entry, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	var entry Entry
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &entry, nil
}

// Remove deletes a pending entry after a successful replay or when it is
// given up on. If a newer position has replaced the entry since it was
// read, the newer one stays pending and Remove returns nil.
func (w *BadgerWAL) Remove(_ context.Context, entry *Entry) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	var removed bool
	key := pendingKey(entry.Position.MMSI)
	err := w.db.Update(func(txn *badger.Txn) error {
		current, err := getEntry(txn, key)
		if err != nil {
			return err
		}
		if current.ID != entry.ID {
			return nil
		}
		removed = true
		return txn.Delete(key)
	})
	metrics.RecordWAL("remove", err)
	if err != nil {
		return err
	}
	if removed {
		metrics.WALPendingEntries.Dec()
	}
	return nil
}

// GetPending returns every pending entry, oldest first.
func (w *BadgerWAL) GetPending(ctx context.Context) ([]*Entry, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("WAL failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}

	sortByCreated(entries)
	return entries, nil
}

// UpdateAttempt records a failed replay of entry. An entry that has been
// replaced by a newer position is left as it is.
func (w *BadgerWAL) UpdateAttempt(_ context.Context, entry *Entry, lastError string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	key := pendingKey(entry.Position.MMSI)
	err := w.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}

		var current Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &current)
		}); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}
		if current.ID != entry.ID {
			return nil
		}

		current.Attempts++
		current.LastAttemptAt = w.now().UTC()
		current.LastError = lastError

		data, err := json.Marshal(&current)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}

		// Keep the remaining TTL rather than restarting it.
		e := badger.NewEntry(key, data)
		if exp := item.ExpiresAt(); exp > 0 {
			remaining := time.Until(time.Unix(int64(exp), 0)) //nolint:gosec // badger stores unix seconds
			if remaining <= 0 {
				remaining = time.Second
			}
			e = e.WithTTL(remaining)
		}
		return txn.SetEntry(e)
	})
	metrics.RecordWAL("retry", err)
	return err
}

// Stats counts pending entries and refreshes the pending gauge.
func (w *BadgerWAL) Stats() Stats {
	if w.checkOpen() != nil {
		return Stats{}
	}

	var pending int64
	if err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			pending++
		}
		return nil
	}); err != nil {
		logging.Warn().Err(err).Msg("WAL Stats failed to count entries")
	}

	lsm, vlog := w.db.Size()
	metrics.WALPendingEntries.Set(float64(pending))
	return Stats{PendingCount: pending, DBSizeBytes: lsm + vlog}
}

func (w *BadgerWAL) refreshPending() {
	_ = w.Stats()
}

// CollectGarbage runs one BadgerDB value log GC pass. Having nothing to
// rewrite is not an error.
func (w *BadgerWAL) CollectGarbage() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.config.InMemory {
		return nil
	}
	err := w.db.RunValueLogGC(w.config.GCRatio)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}

// Close closes the underlying database. Safe to call more than once.
func (w *BadgerWAL) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("WAL closed")
	return nil
}

func sortByCreated(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
