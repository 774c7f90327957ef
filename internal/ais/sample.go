// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"context"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
)

type sampleVessel struct {
	mmsi     string
	name     string
	kind     string
	lat, lon float64
	speed    float64
	heading  float64
}

// The sample fleet is served whenever live data is unavailable so that
// clients always have something to render.
var sampleFleet = []sampleVessel{
	{mmsi: "319904000", name: "Serenity", kind: "Motor Yacht", lat: 26.0998, lon: -80.1115, speed: 0, heading: 90},
	{mmsi: "366998410", name: "Aurora", kind: "Sailing Yacht", lat: 25.7617, lon: -80.1918, speed: 6.4, heading: 135},
	{mmsi: "366759530", name: "Odyssey", kind: "Motor Yacht", lat: 24.5551, lon: -81.7800, speed: 11.2, heading: 270},
	{mmsi: "367671640", name: "Calypso", kind: "Expedition Yacht", lat: 26.7153, lon: -80.0534, speed: 3.8, heading: 10},
}

// SampleIdentifiers lists the identifiers of the sample fleet.
func SampleIdentifiers() []string {
	ids := make([]string, len(sampleFleet))
	for i, v := range sampleFleet {
		ids[i] = v.mmsi
	}
	return ids
}

// SamplePositions returns the sample fleet stamped with now.
func SamplePositions(now time.Time) []models.VesselPosition {
	ts := models.FormatTimestamp(now)
	out := make([]models.VesselPosition, len(sampleFleet))
	for i, v := range sampleFleet {
		out[i] = models.VesselPosition{
			MMSI:      v.mmsi,
			VesselID:  TrailingDigitsHeuristic(v.mmsi),
			Name:      v.name,
			Latitude:  v.lat,
			Longitude: v.lon,
			Speed:     v.speed,
			Heading:   v.heading,
			Timestamp: ts,
		}
	}
	return out
}

// SampleFleetVessels returns the sample fleet shaped like stored vessels.
func SampleFleetVessels(now time.Time) []models.FleetVessel {
	ts := models.FormatTimestamp(now)
	out := make([]models.FleetVessel, len(sampleFleet))
	for i, v := range sampleFleet {
		lat, lon, speed, heading := v.lat, v.lon, v.speed, v.heading
		out[i] = models.FleetVessel{
			Vessel: models.Vessel{
				ID:        int64(i + 1),
				Name:      v.name,
				MMSI:      v.mmsi,
				Type:      v.kind,
				Latitude:  &lat,
				Longitude: &lon,
				Speed:     &speed,
				Heading:   &heading,
			},
			Live:          true,
			LiveTimestamp: ts,
		}
	}
	return out
}

// DefaultDetails is returned when the upstream registry has nothing for
// mmsi. Sample vessels keep their sample name and type.
func DefaultDetails(mmsi string) models.VesselDetails {
	for _, v := range sampleFleet {
		if v.mmsi == mmsi {
			return models.VesselDetails{MMSI: mmsi, Name: v.name, Type: v.kind, Flag: "US", Status: "Unknown"}
		}
	}
	return models.VesselDetails{
		MMSI:   mmsi,
		Name:   DefaultDisplayName(mmsi, ""),
		Type:   "Pleasure Craft",
		Status: "Unknown",
	}
}

// DemoFallbackProvider fabricates positions for identifiers that have no
// live coverage. It keeps demo environments populated and is meant to be
// removed once real coverage exists.
type DemoFallbackProvider interface {
	Positions(ctx context.Context, mmsis []string) []models.VesselPosition
}

// VesselFinder looks up stored vessels by identifier.
type VesselFinder interface {
	FindByMMSI(ctx context.Context, mmsi string) ([]models.Vessel, error)
}

// AllowListDemoProvider fabricates a position near a reference coordinate
// for allow-listed identifiers that exist in the vessel store.
type AllowListDemoProvider struct {
	allow  map[string]struct{}
	store  VesselFinder
	refLat float64
	refLon float64
	now    func() time.Time
}

// NewAllowListDemoProvider creates a provider for the given identifiers.
func NewAllowListDemoProvider(store VesselFinder, allow []string, refLat, refLon float64) *AllowListDemoProvider {
	set := make(map[string]struct{}, len(allow))
	for _, id := range allow {
		set[id] = struct{}{}
	}
	return &AllowListDemoProvider{
		allow:  set,
		store:  store,
		refLat: refLat,
		refLon: refLon,
		now:    time.Now,
	}
}

// Positions implements DemoFallbackProvider. Lookup failures are logged
// and skipped.
func (p *AllowListDemoProvider) Positions(ctx context.Context, mmsis []string) []models.VesselPosition {
	if p == nil || p.store == nil {
		return nil
	}
	ts := models.FormatTimestamp(p.now())
	var out []models.VesselPosition
	for _, mmsi := range mmsis {
		if _, ok := p.allow[mmsi]; !ok {
			continue
		}
		vessels, err := p.store.FindByMMSI(ctx, mmsi)
		if err != nil {
			logging.Warn().Err(err).Str("mmsi", mmsi).Msg("Demo fallback lookup failed")
			continue
		}
		if len(vessels) == 0 {
			continue
		}
		ref := TrailingDigitsHeuristic(mmsi)
		// Spread vessels out so they do not stack on the reference point.
		offset := float64(ref%10) * 0.01
		out = append(out, models.VesselPosition{
			MMSI:      mmsi,
			VesselID:  ref,
			Name:      vessels[0].Name,
			Latitude:  p.refLat + offset,
			Longitude: p.refLon - offset,
			Timestamp: ts,
		})
	}
	return out
}
