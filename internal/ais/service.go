// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package ais is the vessel position ingestion pipeline: the feed
// connection, frame normalization, the persistence sink, the idle reaper
// and the query surface used by HTTP handlers.
//
// A Service is built once by the composition root and shared:
//
//	svc := ais.NewService(cfg.AIS, db, client, ais.NewWebSocketDialer())
//	defer svc.Close()
//	positions := svc.Positions(ctx, ais.PositionQuery{All: true})
//
// Without a feed credential the service never dials and read operations
// serve the sample fleet.
package ais

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/fleetwatch/internal/cache"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

// VesselStore is the durable vessel store used by the service.
type VesselStore interface {
	PositionWriter
	VesselFinder
	ListVessels(ctx context.Context) ([]models.Vessel, error)
	GetVessel(ctx context.Context, id int64) (*models.Vessel, error)
	UpdatePositionByID(ctx context.Context, id int64, upd database.PositionUpdate) (int64, error)
}

// Upstream is the vessel registry REST API.
type Upstream interface {
	VesselDetails(ctx context.Context, mmsi string) ([]models.VesselDetails, error)
	SearchVessels(ctx context.Context, query string) ([]models.VesselDetails, error)
}

// PositionQuery selects positions. All takes precedence over Identifiers.
// A nil Bounds with All means the whole globe.
type PositionQuery struct {
	Identifiers []string
	Bounds      *models.Bounds
	All         bool
}

// Status summarizes the pipeline for health endpoints.
type Status struct {
	Configured      bool      `json:"configured"`
	Connection      string    `json:"connection"`
	CachedPositions int       `json:"cachedPositions"`
	LastUsed        time.Time `json:"lastUsed"`
}

// Service bundles the connection manager, cache, normalizer and sink
// behind the query operations used by HTTP handlers.
type Service struct {
	cfg        config.AISConfig
	store      VesselStore
	upstream   Upstream
	positions  *cache.PositionCache
	details    *cache.TTL[models.VesselDetails]
	normalizer *Normalizer
	sink       *PersistenceSink
	conn       *ConnectionManager
	reaper     *IdleReaper
	demo       DemoFallbackProvider
	now        func() time.Time
}

// NewService wires the pipeline. upstream may be nil, in which case
// detail lookups return defaults and searches fail as unavailable.
func NewService(cfg config.AISConfig, store VesselStore, upstream Upstream, dialer Dialer) *Service {
	positions := cache.NewPositionCache()
	sink := NewPersistenceSink(store, cfg.PersistQueue)
	normalizer := NewNormalizer(positions, sink)

	ttl := cfg.DetailsCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Service{
		cfg:        cfg,
		store:      store,
		upstream:   upstream,
		positions:  positions,
		details:    cache.NewTTL[models.VesselDetails](ttl),
		normalizer: normalizer,
		sink:       sink,
		now:        time.Now,
	}
	s.conn = NewConnectionManager(ConnectionConfig{
		URL:            cfg.StreamURL,
		APIKey:         cfg.APIKey,
		ReconnectDelay: cfg.ReconnectDelay,
	}, dialer, s.handleFrame)
	s.reaper = NewIdleReaper(s.conn, cfg.IdleTimeout, cfg.ReaperInterval)
	if len(cfg.DemoMMSIs) > 0 {
		s.demo = NewAllowListDemoProvider(store, cfg.DemoMMSIs, cfg.DemoLatitude, cfg.DemoLongitude)
	}
	return s
}

func (s *Service) handleFrame(raw []byte) error {
	_, err := s.normalizer.HandleFrame(raw)
	return err
}

// Sink returns the persistence sink; its Serve must be run by the caller.
func (s *Service) Sink() *PersistenceSink { return s.sink }

// Reaper returns the idle reaper; its Serve must be run by the caller.
func (s *Service) Reaper() *IdleReaper { return s.reaper }

// Connection returns the feed connection manager.
func (s *Service) Connection() *ConnectionManager { return s.conn }

// Normalizer returns the frame normalizer.
func (s *Service) Normalizer() *Normalizer { return s.normalizer }

// AddPositionListener registers l for every cached position.
func (s *Service) AddPositionListener(l PositionListener) {
	s.normalizer.AddListener(l)
}

// SetDemoFallback replaces the demo fallback. nil disables it.
func (s *Service) SetDemoFallback(p DemoFallbackProvider) {
	s.demo = p
}

// Close shuts down the feed connection.
func (s *Service) Close() error {
	return s.conn.Close()
}

// Status reports the pipeline state.
func (s *Service) Status() Status {
	return Status{
		Configured:      s.cfg.Configured(),
		Connection:      s.conn.State().String(),
		CachedPositions: s.positions.Len(),
		LastUsed:        s.conn.LastUsed().UTC(),
	}
}

// touch keeps the feed alive while queries are being served and opens it
// on first demand.
func (s *Service) touch() {
	s.conn.Touch()
	s.conn.EnsureStarted()
}

// FleetVessels returns stored vessels with live cached positions laid
// over their stored ones. When the store cannot be read the sample fleet
// is returned.
func (s *Service) FleetVessels(ctx context.Context) []models.FleetVessel {
	s.touch()

	vessels, err := s.store.ListVessels(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Vessel store unavailable, serving sample fleet")
		metrics.FallbackServed.WithLabelValues("fleet_sample").Inc()
		return SampleFleetVessels(s.now())
	}

	out := make([]models.FleetVessel, 0, len(vessels))
	for i := range vessels {
		fv := models.FleetVessel{Vessel: vessels[i]}
		if fv.MMSI != "" {
			if pos, ok := s.positions.Get(fv.MMSI); ok {
				lat, lon, heading, speed := pos.Latitude, pos.Longitude, pos.Heading, pos.Speed
				fv.Latitude = &lat
				fv.Longitude = &lon
				fv.Heading = &heading
				fv.Speed = &speed
				fv.Live = true
				fv.LiveTimestamp = pos.Timestamp
			}
		}
		out = append(out, fv)
	}
	return out
}

// Positions answers a position query. It never fails: when the feed is
// unconfigured or nothing matches, the sample fleet is returned.
func (s *Service) Positions(ctx context.Context, q PositionQuery) []models.VesselPosition {
	if !s.cfg.Configured() {
		return s.samplePositions()
	}
	s.touch()

	if q.All {
		bounds := models.GlobeBounds()
		if q.Bounds != nil {
			bounds = *q.Bounds
		}
		if found := s.positions.AllWithinBounds(bounds); len(found) > 0 {
			return found
		}
		return s.samplePositions()
	}

	if found := s.positions.GetMany(q.Identifiers); len(found) > 0 {
		return found
	}
	if s.demo != nil && len(q.Identifiers) > 0 {
		if synthetic := s.demo.Positions(ctx, q.Identifiers); len(synthetic) > 0 {
			metrics.FallbackServed.WithLabelValues("synthetic").Inc()
			return synthetic
		}
	}
	return s.samplePositions()
}

func (s *Service) samplePositions() []models.VesselPosition {
	metrics.FallbackServed.WithLabelValues("sample").Inc()
	return SamplePositions(s.now())
}

// VesselDetails returns registry details for mmsi, falling back to
// default details. It never reports not found.
func (s *Service) VesselDetails(ctx context.Context, mmsi string) models.VesselDetails {
	mmsi = strings.TrimSpace(mmsi)
	if s.cfg.Configured() {
		s.touch()
	}

	details, ok := s.details.Get(mmsi)
	if !ok {
		details, ok = s.lookupDetails(ctx, mmsi)
		if ok {
			s.details.Set(mmsi, details)
		}
	}
	if !ok {
		metrics.FallbackServed.WithLabelValues("default_details").Inc()
		details = DefaultDetails(mmsi)
	}

	if pos, cached := s.positions.Get(mmsi); cached {
		p := pos
		details.Position = &p
		if details.Name == "" {
			details.Name = pos.Name
		}
	}
	return details
}

func (s *Service) lookupDetails(ctx context.Context, mmsi string) (models.VesselDetails, bool) {
	if !s.cfg.Configured() || s.upstream == nil || mmsi == "" {
		return models.VesselDetails{}, false
	}
	results, err := s.upstream.VesselDetails(ctx, mmsi)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("mmsi", mmsi).Msg("Vessel details lookup failed")
		return models.VesselDetails{}, false
	}
	if len(results) == 0 {
		return models.VesselDetails{}, false
	}
	d := results[0]
	if d.MMSI == "" {
		d.MMSI = mmsi
	}
	d.Position = nil
	return d, true
}

// SearchVessels searches the registry. A numeric query that matches a
// cached identifier is answered from the cache. Unconfigured feeds and
// upstream failures both return ErrServiceUnavailable.
func (s *Service) SearchVessels(ctx context.Context, query string) ([]models.VesselDetails, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if !s.cfg.Configured() || s.upstream == nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, ErrNotConfigured)
	}
	s.touch()

	if isNumericIdentifier(query) {
		if pos, ok := s.positions.Get(query); ok {
			p := pos
			return []models.VesselDetails{{MMSI: pos.MMSI, Name: pos.Name, Position: &p}}, nil
		}
	}

	results, err := s.upstream.SearchVessels(ctx, query)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("Vessel search failed")
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if results == nil {
		results = []models.VesselDetails{}
	}
	return results, nil
}

// UpdatePositionManually writes an operator supplied position straight to
// the store and refreshes the cache from the stored row.
func (s *Service) UpdatePositionManually(ctx context.Context, req *models.PositionUpdateRequest) (*models.Vessel, error) {
	req.MMSI = models.FlexString(strings.TrimSpace(string(req.MMSI)))
	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, verr)
	}

	upd := database.PositionUpdate{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Heading:   req.Heading,
		Speed:     req.Speed,
		At:        s.now(),
	}

	vessel, err := s.writeManual(ctx, req, upd)
	if err != nil {
		return nil, err
	}

	if vessel.MMSI != "" && vessel.Latitude != nil && vessel.Longitude != nil {
		s.normalizer.Publish(positionFromVessel(vessel, s.now()))
	}
	logging.Ctx(ctx).Info().Int64("vessel_id", vessel.ID).Str("mmsi", vessel.MMSI).Msg("Vessel position updated manually")
	return vessel, nil
}

func (s *Service) writeManual(ctx context.Context, req *models.PositionUpdateRequest, upd database.PositionUpdate) (*models.Vessel, error) {
	if mmsi := string(req.MMSI); mmsi != "" {
		n, err := s.sink.Write(ctx, mmsi, upd)
		if err != nil {
			return nil, fmt.Errorf("update position for %s: %w", mmsi, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: mmsi %s", ErrNotFound, mmsi)
		}
		vessels, err := s.store.FindByMMSI(ctx, mmsi)
		if err != nil {
			return nil, fmt.Errorf("reload vessel %s: %w", mmsi, err)
		}
		if len(vessels) == 0 {
			return nil, fmt.Errorf("%w: mmsi %s", ErrNotFound, mmsi)
		}
		return &vessels[0], nil
	}

	id := *req.VesselID
	n, err := s.store.UpdatePositionByID(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update position for vessel %d: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: vessel %d", ErrNotFound, id)
	}
	vessel, err := s.store.GetVessel(ctx, id)
	if errors.Is(err, database.ErrVesselNotFound) {
		return nil, fmt.Errorf("%w: vessel %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reload vessel %d: %w", id, err)
	}
	return vessel, nil
}

func positionFromVessel(v *models.Vessel, now time.Time) models.VesselPosition {
	pos := models.VesselPosition{
		MMSI:      v.MMSI,
		VesselID:  TrailingDigitsHeuristic(v.MMSI),
		Name:      v.Name,
		Latitude:  *v.Latitude,
		Longitude: *v.Longitude,
		Timestamp: models.FormatTimestamp(now),
	}
	if v.Heading != nil {
		pos.Heading = *v.Heading
	}
	if v.Speed != nil {
		pos.Speed = *v.Speed
	}
	if v.LastPositionUpdate != nil {
		pos.Timestamp = models.FormatTimestamp(*v.LastPositionUpdate)
	}
	return pos
}
