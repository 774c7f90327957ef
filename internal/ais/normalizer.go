// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/cache"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// PositionListener is notified of every position that reaches the cache.
// Implementations must not block.
type PositionListener interface {
	OnPosition(pos models.VesselPosition)
}

// PositionListenerFunc adapts a function to PositionListener.
type PositionListenerFunc func(pos models.VesselPosition)

// OnPosition implements PositionListener.
func (f PositionListenerFunc) OnPosition(pos models.VesselPosition) { f(pos) }

// PositionSubmitter accepts positions for background persistence.
type PositionSubmitter interface {
	Submit(pos models.VesselPosition) bool
}

// Normalizer turns feed frames into canonical positions and fans them out
// to the cache, the persistence sink and any listeners.
type Normalizer struct {
	cache     *cache.PositionCache
	sink      PositionSubmitter
	heuristic IdentifierHeuristic
	namer     DisplayNamer
	now       func() time.Time

	mu        sync.RWMutex
	listeners []PositionListener
}

// NewNormalizer creates a normalizer writing into c and submitting to
// sink. A nil sink disables persistence.
func NewNormalizer(c *cache.PositionCache, sink PositionSubmitter) *Normalizer {
	return &Normalizer{
		cache:     c,
		sink:      sink,
		heuristic: TrailingDigitsHeuristic,
		namer:     DefaultDisplayName,
		now:       time.Now,
	}
}

// SetHeuristic replaces the vessel reference derivation.
func (n *Normalizer) SetHeuristic(h IdentifierHeuristic) {
	if h != nil {
		n.heuristic = h
	}
}

// SetDisplayNamer replaces the display name strategy.
func (n *Normalizer) SetDisplayNamer(d DisplayNamer) {
	if d != nil {
		n.namer = d
	}
}

// AddListener registers l for all subsequent positions.
func (n *Normalizer) AddListener(l PositionListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// HandleFrame processes one raw feed frame. It returns (nil, nil) for
// frames that are not position reports.
func (n *Normalizer) HandleFrame(raw []byte) (*models.VesselPosition, error) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		metrics.RecordFrame("undecodable")
		return nil, err
	}
	if !frame.IsPositionReport() {
		metrics.RecordFrame("ignored")
		return nil, nil
	}

	report, err := frame.PositionReport()
	if err != nil {
		if errors.Is(err, ErrMissingIdentifier) {
			metrics.RecordFrame("missing_identifier")
		} else {
			metrics.RecordFrame("undecodable")
		}
		return nil, err
	}

	pos, err := n.Normalize(report)
	if err != nil {
		metrics.RecordFrame("undecodable")
		return nil, err
	}
	metrics.RecordFrame("position")

	n.Publish(pos)
	if n.sink != nil {
		n.sink.Submit(pos)
	}
	return &pos, nil
}

// Normalize converts a decoded report into a VesselPosition stamped with
// the current time. It has no side effects.
func (n *Normalizer) Normalize(report PositionReport) (models.VesselPosition, error) {
	switch report.(type) {
	case *NestedPositionReport, *FlatPositionReport:
	default:
		return models.VesselPosition{}, fmt.Errorf("%w: unsupported position report %T", ErrUndecodableFrame, report)
	}

	mmsi := report.Identifier()
	if mmsi == "" {
		return models.VesselPosition{}, ErrMissingIdentifier
	}
	fix := report.Fix()
	return models.VesselPosition{
		MMSI:      mmsi,
		VesselID:  n.heuristic(mmsi),
		Name:      n.namer(mmsi, report.ReportedName()),
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Speed:     fix.Speed,
		Heading:   fix.Heading,
		Timestamp: models.FormatTimestamp(n.now()),
	}, nil
}

// Publish records pos in the cache and notifies listeners without
// persisting it.
func (n *Normalizer) Publish(pos models.VesselPosition) {
	n.cache.Put(pos.MMSI, pos)
	metrics.PositionCacheEntries.Set(float64(n.cache.Len()))

	n.mu.RLock()
	listeners := n.listeners
	n.mu.RUnlock()
	for _, l := range listeners {
		n.notify(l, pos)
	}
}

func (n *Normalizer) notify(l PositionListener, pos models.VesselPosition) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("mmsi", pos.MMSI).Msg("Position listener panicked")
		}
	}()
	l.OnPosition(pos)
}
