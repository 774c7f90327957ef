// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package models holds the data types shared between the ingestion
// pipeline, the vessel store and the HTTP layer.
package models

import "time"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// VesselPosition is the canonical position record produced from a feed
// frame, a manual correction or the sample data set.
type VesselPosition struct {
	MMSI      string  `json:"mmsi"`
	VesselID  int     `json:"vesselId"` // heuristic, never a persistence key
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`   // knots over ground
	Heading   float64 `json:"heading"` // degrees 0-359
	Timestamp string  `json:"timestamp"`
}

// HasFix reports whether the position is usable for bounds filtering.
// 0/0 means the feed had no fix.
func (p *VesselPosition) HasFix() bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Bounds is an inclusive geographic box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// GlobeBounds covers every valid coordinate.
func GlobeBounds() Bounds {
	return Bounds{North: 90, South: -90, East: 180, West: -180}
}

// Contains reports whether lat/lon fall inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat <= b.North && lat >= b.South && lon <= b.East && lon >= b.West
}

// Vessel is a persisted fleet vessel. Position fields are nil until the
// first fix is recorded.
type Vessel struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	MMSI               string     `json:"mmsi,omitempty"`
	Type               string     `json:"type,omitempty"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	Heading            *float64   `json:"heading"`
	Speed              *float64   `json:"speed"`
	LastPositionUpdate *time.Time `json:"lastPositionUpdate"`
}

// FleetVessel is a persisted vessel with the live cached position laid
// over its stored position fields when one is known.
type FleetVessel struct {
	Vessel
	Live          bool   `json:"live"`
	LiveTimestamp string `json:"liveTimestamp,omitempty"`
}

// VesselDetails describes a vessel as reported by the upstream registry.
type VesselDetails struct {
	MMSI        string          `json:"mmsi"`
	Name        string          `json:"name"`
	IMO         string          `json:"imo,omitempty"`
	CallSign    string          `json:"callSign,omitempty"`
	Type        string          `json:"type,omitempty"`
	Flag        string          `json:"flag,omitempty"`
	Length      float64         `json:"length,omitempty"`
	Width       float64         `json:"width,omitempty"`
	Destination string          `json:"destination,omitempty"`
	ETA         string          `json:"eta,omitempty"`
	Status      string          `json:"status,omitempty"`
	Position    *VesselPosition `json:"position,omitempty"`
}

// PositionUpdateRequest is the body of a manual position correction.
// Exactly one of MMSI or VesselID identifies the vessel. MMSI may be sent
// as a string or a number and is matched as stored, so fleet records with
// a non-standard identifier can still be corrected.
type PositionUpdateRequest struct {
	MMSI      FlexString `json:"mmsi,omitempty" validate:"required_without=VesselID"`
	VesselID  *int64     `json:"vesselId,omitempty" validate:"required_without=MMSI,omitempty,gt=0"`
	Latitude  *float64   `json:"latitude" validate:"required,latitude"`
	Longitude *float64   `json:"longitude" validate:"required,longitude"`
	Heading   *float64   `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Speed     *float64   `json:"speed,omitempty" validate:"omitempty,gte=0"`
}

// PositionUpdateResponse is returned after a successful manual update.
type PositionUpdateResponse struct {
	Success bool   `json:"success"`
	Vessel  Vessel `json:"vessel"`
}
