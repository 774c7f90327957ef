// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"errors"
	"io"
)

// ErrVesselNotFound is returned when no vessel row matches a lookup.
var ErrVesselNotFound = errors.New("vessel not found")

// closeQuietly closes a resource in error paths where Close errors are
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
