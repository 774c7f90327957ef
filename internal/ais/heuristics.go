// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"strconv"
	"strings"
)

// IdentifierHeuristic derives the convenience vessel reference carried in
// cached positions. It is never used as a persistence key.
type IdentifierHeuristic func(mmsi string) int

// DisplayNamer picks the display name for a position. reported is the
// name the feed sent, usually empty.
type DisplayNamer func(mmsi, reported string) string

// TrailingDigitsHeuristic interprets the last 8 digits of the identifier
// as an integer, modulo 1000.
func TrailingDigitsHeuristic(mmsi string) int {
	d := digitsOf(mmsi)
	if len(d) > 8 {
		d = d[len(d)-8:]
	}
	if d == "" {
		return 0
	}
	n, err := strconv.Atoi(d)
	if err != nil {
		return 0
	}
	return n % 1000
}

// DefaultDisplayName uses the reported name, or "Vessel NNNN" built from
// the last 4 digits of the identifier.
func DefaultDisplayName(mmsi, reported string) string {
	if name := strings.TrimSpace(reported); name != "" {
		return name
	}
	d := digitsOf(mmsi)
	if len(d) > 4 {
		d = d[len(d)-4:]
	}
	if d == "" {
		return "Vessel " + mmsi
	}
	return "Vessel " + d
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNumericIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
