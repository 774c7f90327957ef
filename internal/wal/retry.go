// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package wal

import (
	"context"
	"math"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

const (
	replayTimeout = 10 * time.Second
	maxBackoff    = 5 * time.Minute
)

// Replayer re-applies a spooled position. ais.PersistenceSink satisfies it.
type Replayer interface {
	Replay(ctx context.Context, pos models.VesselPosition) error
}

// ReplayerFunc adapts a function to Replayer.
type ReplayerFunc func(ctx context.Context, pos models.VesselPosition) error

// Replay implements Replayer.
func (f ReplayerFunc) Replay(ctx context.Context, pos models.VesselPosition) error {
	return f(ctx, pos)
}

// RetryResult summarizes one pass over the pending entries.
type RetryResult struct {
	Pending    int
	Replayed   int
	Failed     int
	Expired    int
	MaxRetried int
	Skipped    int
}

// RetryLoop replays spooled positions. It implements suture.Service.
type RetryLoop struct {
	wal      *BadgerWAL
	replayer Replayer
	config   Config
}

// NewRetryLoop creates a retry loop draining w through r.
func NewRetryLoop(w *BadgerWAL, r Replayer) *RetryLoop {
	return &RetryLoop{
		wal:      w,
		replayer: r,
		config:   w.Config(),
	}
}

// Serve runs a recovery pass immediately, then one pass per
// RetryInterval until ctx is canceled.
func (r *RetryLoop) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", r.config.RetryInterval).
		Int("max_retries", r.config.MaxRetries).
		Msg("WAL retry loop started")

	if res := r.RetryPending(ctx); res.Pending > 0 {
		logging.Info().Int("pending", res.Pending).Int("replayed", res.Replayed).Msg("WAL recovery complete")
	}

	ticker := time.NewTicker(r.config.RetryInterval)
	defer ticker.Stop()

	var gcTicks <-chan time.Time
	if r.config.GCInterval > 0 {
		gc := time.NewTicker(r.config.GCInterval)
		defer gc.Stop()
		gcTicks = gc.C
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("WAL retry loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.RetryPending(ctx)
		case <-gcTicks:
			if err := r.wal.CollectGarbage(); err != nil {
				logging.Warn().Err(err).Msg("WAL value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *RetryLoop) String() string {
	return "wal-retry-loop"
}

// RetryPending makes one pass over every pending entry.
func (r *RetryLoop) RetryPending(ctx context.Context) RetryResult {
	var res RetryResult

	entries, err := r.wal.GetPending(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("WAL retry: failed to get pending entries")
		return res
	}
	res.Pending = len(entries)
	if len(entries) == 0 {
		return res
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		r.processEntry(ctx, entry, &res)
	}

	if res.Replayed > 0 || res.Failed > 0 || res.Expired > 0 || res.MaxRetried > 0 {
		logging.Info().
			Int("replayed", res.Replayed).
			Int("failed", res.Failed).
			Int("expired", res.Expired).
			Int("max_retried", res.MaxRetried).
			Msg("WAL retry complete")
	}
	return res
}

func (r *RetryLoop) processEntry(ctx context.Context, entry *Entry, res *RetryResult) {
	now := r.wal.now()

	if r.config.EntryTTL > 0 && now.Sub(entry.CreatedAt) > r.config.EntryTTL {
		logging.Info().Str("entry_id", entry.ID).Str("mmsi", entry.Position.MMSI).Msg("WAL retry: entry expired, removing")
		r.drop(ctx, entry, "expire")
		res.Expired++
		return
	}

	if entry.Attempts >= r.config.MaxRetries {
		logging.Warn().
			Str("entry_id", entry.ID).
			Str("mmsi", entry.Position.MMSI).
			Int("attempts", entry.Attempts).
			Str("last_error", entry.LastError).
			Msg("WAL retry: entry exceeded max retries, removing")
		r.drop(ctx, entry, "max_retries")
		res.MaxRetried++
		return
	}

	if !entry.LastAttemptAt.IsZero() && now.Sub(entry.LastAttemptAt) < r.backoff(entry.Attempts) {
		res.Skipped++
		return
	}

	rctx, cancel := context.WithTimeout(ctx, replayTimeout)
	err := r.replayer.Replay(rctx, entry.Position)
	cancel()

	if err != nil {
		logging.Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("WAL retry: replay failed")
		if uerr := r.wal.UpdateAttempt(ctx, entry, err.Error()); uerr != nil {
			logging.Error().Err(uerr).Str("entry_id", entry.ID).Msg("WAL retry: failed to update attempt")
		}
		res.Failed++
		return
	}

	if err := r.wal.Remove(ctx, entry); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to remove replayed entry")
		res.Failed++
		return
	}
	res.Replayed++
}

func (r *RetryLoop) drop(ctx context.Context, entry *Entry, reason string) {
	err := r.wal.Remove(ctx, entry)
	if err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to remove entry")
	}
	metrics.RecordWAL(reason, err)
}

// backoff is RetryBackoff * 2^(attempts-1), capped at five minutes. The
// first replay is never delayed.
func (r *RetryLoop) backoff(attempts int) time.Duration {
	if attempts <= 0 || r.config.RetryBackoff <= 0 {
		return 0
	}
	if attempts > 30 {
		return maxBackoff
	}
	d := time.Duration(float64(r.config.RetryBackoff) * math.Pow(2, float64(attempts-1)))
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
