// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"context"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
)

const (
	// DefaultIdleTimeout is how long the feed may go untouched before the
	// reaper closes it.
	DefaultIdleTimeout = 5 * time.Minute

	// DefaultReaperInterval is the reaper tick period.
	DefaultReaperInterval = 60 * time.Second
)

// IdleConn is the view of the connection the reaper needs.
type IdleConn interface {
	LastUsed() time.Time
	IsOpen() bool
	ForceClose() bool
}

// IdleReaper periodically closes the feed connection when no query has
// touched it within the idle timeout.
type IdleReaper struct {
	conn     IdleConn
	timeout  time.Duration
	interval time.Duration
}

// NewIdleReaper creates a reaper. Zero durations select the defaults.
func NewIdleReaper(conn IdleConn, timeout, interval time.Duration) *IdleReaper {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	return &IdleReaper{conn: conn, timeout: timeout, interval: interval}
}

// Tick runs one reaper cycle as of now and reports whether it closed the
// connection.
func (r *IdleReaper) Tick(now time.Time) bool {
	if !r.conn.IsOpen() {
		return false
	}
	idle := now.Sub(r.conn.LastUsed())
	if idle <= r.timeout {
		return false
	}
	if !r.conn.ForceClose() {
		return false
	}
	metrics.AISIdleCloses.Inc()
	logging.Info().Dur("idle", idle).Msg("Closed idle AIS feed connection")
	return true
}

// Serve ticks until ctx is canceled.
func (r *IdleReaper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *IdleReaper) String() string {
	return "ais-idle-reaper"
}
