// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import "errors"

var (
	// ErrNotConfigured is returned when an operation needs the feed
	// credential and none is set.
	ErrNotConfigured = errors.New("ais feed not configured")

	// ErrServiceUnavailable means the upstream vessel registry could not
	// answer. Callers must not treat it as an empty result.
	ErrServiceUnavailable = errors.New("vessel service unavailable")

	// ErrValidation wraps invalid input to a query surface operation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a manual update names no known vessel.
	ErrNotFound = errors.New("vessel not found")

	// ErrUndecodableFrame is returned for feed frames that are not JSON.
	ErrUndecodableFrame = errors.New("undecodable frame")

	// ErrMissingIdentifier is returned for position reports without a
	// station identifier.
	ErrMissingIdentifier = errors.New("position report has no identifier")
)
