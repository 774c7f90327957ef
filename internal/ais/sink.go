// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// PositionWriter updates the stored position of every vessel carrying
// an identifier.
type PositionWriter interface {
	UpdatePositionByMMSI(ctx context.Context, mmsi string, upd database.PositionUpdate) (int64, error)
	UpdatePositionByMMSIIfNewer(ctx context.Context, mmsi string, upd database.PositionUpdate) (int64, error)
}

// fleetLister is implemented by stores that can list the fleet up front.
type fleetLister interface {
	ListVessels(ctx context.Context) ([]models.Vessel, error)
}

// Spool keeps positions whose write failed so they can be retried.
type Spool interface {
	Write(ctx context.Context, pos models.VesselPosition) error
}

// ErrorHandler receives persistence failures. It is called from the sink
// worker and must not block.
type ErrorHandler func(pos models.VesselPosition, err error)

// DefaultPersistQueue is used when no queue size is configured.
const DefaultPersistQueue = 1024

const writeTimeout = 10 * time.Second

// PersistenceSink writes normalized positions into the vessel store from
// a single background worker. Submit never blocks the feed.
//
// Failed writes are spooled only for identifiers known to belong to the
// fleet. Until the fleet is known (the store has been unreachable since
// start) every failure is spooled; the spool keeps one entry per MMSI.
type PersistenceSink struct {
	store   PositionWriter
	queue   chan models.VesselPosition
	spool   Spool
	onError ErrorHandler

	fleetMu    sync.RWMutex
	fleet      map[string]struct{}
	fleetKnown bool
}

// NewPersistenceSink creates a sink with a bounded queue.
func NewPersistenceSink(store PositionWriter, queueSize int) *PersistenceSink {
	if queueSize <= 0 {
		queueSize = DefaultPersistQueue
	}
	return &PersistenceSink{
		store: store,
		queue: make(chan models.VesselPosition, queueSize),
	}
}

// SetSpool enables spooling of failed writes. Call before Serve.
func (s *PersistenceSink) SetSpool(sp Spool) {
	s.spool = sp
}

// SetErrorHandler registers h for write failures. Call before Serve.
func (s *PersistenceSink) SetErrorHandler(h ErrorHandler) {
	s.onError = h
}

// Submit queues pos for persistence. When the queue is full the position
// is dropped and false is returned.
func (s *PersistenceSink) Submit(pos models.VesselPosition) bool {
	select {
	case s.queue <- pos:
		metrics.PersistenceQueueDepth.Set(float64(len(s.queue)))
		return true
	default:
		metrics.PersistenceQueueDropped.Inc()
		logging.Debug().Str("mmsi", pos.MMSI).Msg("Persistence queue full, dropping position")
		return false
	}
}

// SetFleet records the identifiers that belong to the fleet.
func (s *PersistenceSink) SetFleet(mmsis []string) {
	fleet := make(map[string]struct{}, len(mmsis))
	for _, m := range mmsis {
		if m != "" {
			fleet[m] = struct{}{}
		}
	}
	s.fleetMu.Lock()
	s.fleet = fleet
	s.fleetKnown = true
	s.fleetMu.Unlock()
}

func (s *PersistenceSink) learnFleetMember(mmsi string) {
	s.fleetMu.Lock()
	defer s.fleetMu.Unlock()
	if s.fleet == nil {
		s.fleet = make(map[string]struct{})
	}
	s.fleet[mmsi] = struct{}{}
	s.fleetKnown = true
}

// shouldSpool reports whether a failed write for mmsi is worth retrying.
func (s *PersistenceSink) shouldSpool(mmsi string) bool {
	s.fleetMu.RLock()
	defer s.fleetMu.RUnlock()
	if !s.fleetKnown {
		return true
	}
	_, ok := s.fleet[mmsi]
	return ok
}

// Apply writes pos to every vessel with its identifier. Failures are
// logged, reported and, for fleet vessels, spooled; the error is returned
// for callers that care, but the sink worker ignores it.
func (s *PersistenceSink) Apply(ctx context.Context, pos models.VesselPosition) error {
	n, err := s.Write(ctx, pos.MMSI, positionUpdateFrom(pos))
	if err == nil {
		if n > 0 {
			s.learnFleetMember(pos.MMSI)
		}
		return nil
	}

	logging.Warn().Err(err).Str("mmsi", pos.MMSI).Msg("Failed to persist vessel position")
	if s.onError != nil {
		s.onError(pos, err)
	}
	if s.spool != nil && s.shouldSpool(pos.MMSI) {
		if serr := s.spool.Write(ctx, pos); serr != nil {
			logging.Error().Err(serr).Str("mmsi", pos.MMSI).Msg("Failed to spool vessel position")
		}
	}
	return err
}

// Write performs the store update without spooling and returns how many
// vessels were updated. Zero matches is not an error.
func (s *PersistenceSink) Write(ctx context.Context, mmsi string, upd database.PositionUpdate) (int64, error) {
	n, err := s.store.UpdatePositionByMMSI(ctx, mmsi, upd)
	switch {
	case err != nil:
		metrics.RecordPersistence("error")
	case n == 0:
		metrics.RecordPersistence("no_match")
	default:
		metrics.RecordPersistence("updated")
	}
	return n, err
}

// Replay re-applies a spooled position. It is the retry callback for the
// write spool and does not spool again. Vessels that already hold a newer
// fix are left unchanged.
func (s *PersistenceSink) Replay(ctx context.Context, pos models.VesselPosition) error {
	n, err := s.store.UpdatePositionByMMSIIfNewer(ctx, pos.MMSI, positionUpdateFrom(pos))
	switch {
	case err != nil:
		metrics.RecordPersistence("error")
	case n == 0:
		metrics.RecordPersistence("not_applied")
	default:
		metrics.RecordPersistence("replayed")
	}
	return err
}

// loadFleet primes the fleet filter. A failure leaves the filter open.
func (s *PersistenceSink) loadFleet(ctx context.Context) {
	lister, ok := s.store.(fleetLister)
	if !ok {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	vessels, err := lister.ListVessels(lctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Could not load fleet, spooling every failed write")
		return
	}
	mmsis := make([]string, 0, len(vessels))
	for i := range vessels {
		mmsis = append(mmsis, vessels[i].MMSI)
	}
	s.SetFleet(mmsis)
}

// Serve drains the queue until ctx is canceled.
func (s *PersistenceSink) Serve(ctx context.Context) error {
	logging.Info().Int("queue", cap(s.queue)).Msg("Persistence sink started")
	s.loadFleet(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pos := <-s.queue:
			metrics.PersistenceQueueDepth.Set(float64(len(s.queue)))
			s.applyOne(ctx, pos)
		}
	}
}

func (s *PersistenceSink) applyOne(ctx context.Context, pos models.VesselPosition) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Str("mmsi", pos.MMSI).Msg("Recovered panic while persisting position")
		}
	}()
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = s.Apply(wctx, pos) //nolint:errcheck // logged and spooled by Apply
}

// String implements fmt.Stringer for supervisor logs.
func (s *PersistenceSink) String() string {
	return "persistence-sink"
}

func positionUpdateFrom(pos models.VesselPosition) database.PositionUpdate {
	at, err := time.Parse(models.TimestampLayout, pos.Timestamp)
	if err != nil {
		at = time.Now()
	}
	heading, speed := pos.Heading, pos.Speed
	return database.PositionUpdate{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Heading:   &heading,
		Speed:     &speed,
		At:        at,
	}
}
