// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package wal

import (
	"errors"
	"time"

	"github.com/tomtom215/fleetwatch/internal/config"
)

// Config holds spool configuration.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the spool in memory only. Used by tests.
	InMemory bool

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// RetryInterval is the time between retry loop iterations.
	RetryInterval time.Duration

	// MaxRetries is how many replays an entry gets before it is dropped.
	MaxRetries int

	// RetryBackoff is the base of the per-entry exponential backoff.
	RetryBackoff time.Duration

	// EntryTTL is how long an entry may wait before it is discarded.
	EntryTTL time.Duration

	// GCInterval is the time between BadgerDB value log GC runs.
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64
}

// DefaultConfig returns the spool defaults.
func DefaultConfig() Config {
	return Config{
		Path:          "/data/wal",
		SyncWrites:    true,
		RetryInterval: 30 * time.Second,
		MaxRetries:    10,
		RetryBackoff:  5 * time.Second,
		EntryTTL:      24 * time.Hour,
		GCInterval:    10 * time.Minute,
		GCRatio:       0.5,
	}
}

// ConfigFromWAL maps the application config onto spool settings. Zero
// values keep the defaults.
func ConfigFromWAL(cfg *config.WALConfig) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Path != "" {
		c.Path = cfg.Path
	}
	if cfg.RetryInterval > 0 {
		c.RetryInterval = cfg.RetryInterval
	}
	if cfg.MaxRetries > 0 {
		c.MaxRetries = cfg.MaxRetries
	}
	if cfg.EntryTTL > 0 {
		c.EntryTTL = cfg.EntryTTL
	}
	return c
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("path is required")
	}
	if c.RetryInterval <= 0 {
		return errors.New("retry interval must be positive")
	}
	if c.MaxRetries < 1 {
		return errors.New("max retries must be at least 1")
	}
	if c.EntryTTL < 0 {
		return errors.New("entry TTL must not be negative")
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return errors.New("GC ratio must be between 0 and 1 exclusive")
	}
	return nil
}
