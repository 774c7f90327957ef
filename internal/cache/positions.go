// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package cache provides the in-memory stores used on the query path:
// the live position cache keyed by MMSI and a small TTL cache for
// upstream lookups.
package cache

import (
	"sync"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// PositionCache holds the latest known position per MMSI for the life of
// the process. Entries are never evicted; consumers judge staleness from
// the position timestamp.
type PositionCache struct {
	mu        sync.RWMutex
	positions map[string]models.VesselPosition
}

// NewPositionCache creates an empty cache.
func NewPositionCache() *PositionCache {
	return &PositionCache{positions: make(map[string]models.VesselPosition)}
}

// Put overwrites the entry for mmsi.
//
//nolint:gocritic // positions are stored by value
func (c *PositionCache) Put(mmsi string, pos models.VesselPosition) {
	c.mu.Lock()
	c.positions[mmsi] = pos
	c.mu.Unlock()
}

// Get returns the latest position for mmsi.
func (c *PositionCache) Get(mmsi string) (models.VesselPosition, bool) {
	c.mu.RLock()
	pos, ok := c.positions[mmsi]
	c.mu.RUnlock()
	return pos, ok
}

// GetMany returns the cached positions for the given identifiers, skipping
// unknown ones. Result order follows mmsis.
func (c *PositionCache) GetMany(mmsis []string) []models.VesselPosition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.VesselPosition, 0, len(mmsis))
	for _, id := range mmsis {
		if pos, ok := c.positions[id]; ok {
			out = append(out, pos)
		}
	}
	return out
}

// AllWithinBounds returns every cached position that has a fix inside the
// inclusive box. Order is unspecified.
func (c *PositionCache) AllWithinBounds(b models.Bounds) []models.VesselPosition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.VesselPosition, 0, len(c.positions))
	for _, pos := range c.positions {
		if pos.HasFix() && b.Contains(pos.Latitude, pos.Longitude) {
			out = append(out, pos)
		}
	}
	return out
}

// Len returns the number of cached vessels.
func (c *PositionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.positions)
}
