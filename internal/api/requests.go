// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

// BoundsRequest is the validated viewport of a showAll position query.
// Omitted edges default to the whole globe.
type BoundsRequest struct {
	North float64 `validate:"latitude,gtefield=South"`
	South float64 `validate:"latitude"`
	East  float64 `validate:"longitude"`
	West  float64 `validate:"longitude"`
}

// parseBoundsRequest reads north/south/east/west. It returns nil bounds
// when none of the four are present.
func parseBoundsRequest(r *http.Request) (*models.Bounds, error) {
	globe := models.GlobeBounds()
	req := BoundsRequest{North: globe.North, South: globe.South, East: globe.East, West: globe.West}

	present := false
	for _, edge := range []struct {
		key string
		dst *float64
	}{
		{"north", &req.North},
		{"south", &req.South},
		{"east", &req.East},
		{"west", &req.West},
	} {
		v, ok, err := getFloatParam(r, edge.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*edge.dst = v
			present = true
		}
	}
	if !present {
		return nil, nil
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, errors.New(verr.ToAPIError().Message)
	}
	return &models.Bounds{North: req.North, South: req.South, East: req.East, West: req.West}, nil
}
