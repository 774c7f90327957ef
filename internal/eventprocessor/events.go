// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package eventprocessor

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// SchemaVersion is bumped on incompatible PositionEvent changes.
const SchemaVersion = 1

// SourceAISStream marks positions that arrived from the live feed.
const SourceAISStream = "aisstream"

// PositionEvent is the bus representation of one cached position.
type PositionEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Source        string    `json:"source"`
	PublishedAt   time.Time `json:"published_at"`

	MMSI      string  `json:"mmsi"`
	VesselID  int     `json:"vessel_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp string  `json:"timestamp"`
}

// NewPositionEvent creates an event with a unique ID and schema version.
func NewPositionEvent(pos *models.VesselPosition) *PositionEvent {
	return &PositionEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Source:        SourceAISStream,
		PublishedAt:   time.Now().UTC(),
		MMSI:          pos.MMSI,
		VesselID:      pos.VesselID,
		Name:          pos.Name,
		Latitude:      pos.Latitude,
		Longitude:     pos.Longitude,
		Speed:         pos.Speed,
		Heading:       pos.Heading,
		Timestamp:     pos.Timestamp,
	}
}

// Position converts the event back to the cache representation.
func (e *PositionEvent) Position() models.VesselPosition {
	return models.VesselPosition{
		MMSI:      e.MMSI,
		VesselID:  e.VesselID,
		Name:      e.Name,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		Speed:     e.Speed,
		Heading:   e.Heading,
		Timestamp: e.Timestamp,
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *PositionEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.MMSI == "" {
		return &ValidationError{Field: "mmsi", Message: "required"}
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: "out of range"}
	}
	if e.Longitude < -180 || e.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: "out of range"}
	}
	return nil
}

// ValidationError reports an invalid event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
