// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package wal provides a durable spool, backed by BadgerDB, for vessel
// position writes that failed against the vessel store.
//
// The persistence sink writes positions straight into DuckDB. When that
// write fails the position is handed to the spool, and a supervised retry
// loop replays it until it succeeds, exceeds its retry budget, or
// outlives its TTL:
//
//	Position → store write ✗ → Spool.Write (BadgerDB)
//	                                ↓ every RetryInterval
//	                         Replay → store write ✓ → Remove
//
// # Components
//
//   - BadgerWAL: the spool itself. It satisfies ais.Spool.
//   - RetryLoop: the supervised service that replays pending entries.
//
// # Usage
//
//	w, err := wal.Open(wal.ConfigFromWAL(&cfg.WAL))
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	sink.SetSpool(w)
//	tree.AddDataService(wal.NewRetryLoop(w, sink))
//
// The spool holds at most one entry per MMSI; a newer position replaces
// an older one and an older one never replaces a newer one. Replays only
// touch vessels whose stored fix is not newer, so replaying an entry twice
// after a crash, or after live writes have resumed, cannot roll a vessel
// back. Spooled entries also carry a native BadgerDB TTL so an abandoned
// spool drains itself.
//
// # Metrics
//
//   - wal_operations_total{operation,result}: write, remove, retry, expire, max_retries
//   - wal_pending_entries: entries awaiting replay
package wal
