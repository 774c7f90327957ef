// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestVesselPosition_HasFix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"fort lauderdale", 26.1, -80.1, true},
		{"zero zero is absent", 0, 0, false},
		{"equator only", 0, 10, true},
		{"prime meridian only", 10, 0, true},
		{"latitude out of range", 91, 10, false},
		{"longitude out of range", 10, -181, false},
		{"poles inclusive", -90, 180, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := VesselPosition{Latitude: tt.lat, Longitude: tt.lon}
			if got := p.HasFix(); got != tt.want {
				t.Errorf("HasFix(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestBounds_Contains(t *testing.T) {
	t.Parallel()

	box := Bounds{North: 10, South: 0, East: 10, West: 0}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"inside", 5, 5, true},
		{"north of box", 20, 5, false},
		{"east of box", 5, 20, false},
		{"corner inclusive", 10, 10, true},
		{"south-west edge inclusive", 0, 0, true},
	}
	for _, tt := range tests {
		if got := box.Contains(tt.lat, tt.lon); got != tt.want {
			t.Errorf("%s: Contains(%v, %v) = %v, want %v", tt.name, tt.lat, tt.lon, got, tt.want)
		}
	}

	if !GlobeBounds().Contains(-90, -180) || !GlobeBounds().Contains(90, 180) {
		t.Error("GlobeBounds() should include the extreme coordinates")
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2026, 3, 14, 7, 30, 0, 123456789, loc)

	if got, want := FormatTimestamp(ts), "2026-03-14T12:30:00.123Z"; got != want {
		t.Errorf("FormatTimestamp() = %q, want %q", got, want)
	}
}

func TestFlexString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  FlexString
	}{
		{`"319904000"`, "319904000"},
		{`319904000`, "319904000"},
		{`3.19904e8`, "319904000"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var got FlexString
		if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFlexFloat(t *testing.T) {
	t.Parallel()

	var v struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
		C FlexFloat `json:"c"`
		D FlexFloat `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42.5, "b": "12.25", "c": "n/a", "d": null}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.A != 42.5 || v.B != 12.25 || v.C != 0 || v.D != 0 {
		t.Errorf("decoded = %+v, want {42.5 12.25 0 0}", v)
	}
}
