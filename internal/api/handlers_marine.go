// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fleetwatch/internal/ais"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// FleetVessels handles GET /api/marine/fleet-vessels.
func (h *Handler) FleetVessels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.FleetVessels(r.Context()))
}

// VesselPositions handles GET /api/marine/vessel-positions.
//
//	?showAll=true&north=&south=&east=&west=   cached positions in a viewport
//	?mmsi=<id>&mmsi=<id>                      positions for specific vessels
func (h *Handler) VesselPositions(w http.ResponseWriter, r *http.Request) {
	q := ais.PositionQuery{
		All:         getBoolParam(r, "showAll"),
		Identifiers: getListParam(r, "mmsi"),
	}
	if q.All {
		bounds, err := parseBoundsRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
			return
		}
		q.Bounds = bounds
	}

	respondJSON(w, http.StatusOK, h.svc.Positions(r.Context(), q))
}

// VesselDetails handles GET /api/marine/vessel-details/{identifier}. It
// never answers 404; unknown vessels get default details.
func (h *Handler) VesselDetails(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if identifier == "" {
		respondError(w, http.StatusBadRequest, CodeValidation, "identifier is required")
		return
	}
	respondJSON(w, http.StatusOK, h.svc.VesselDetails(r.Context(), identifier))
}

// SearchVessels handles GET /api/marine/search-vessels?query=. Failures
// are always explicit: 400 for an empty query, 503 when the registry is
// unconfigured or unreachable.
func (h *Handler) SearchVessels(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.SearchVessels(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		status, code := statusForError(err)
		if status == http.StatusServiceUnavailable {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Vessel search unavailable")
			respondJSON(w, status, SearchErrorResponse{
				Error:   code,
				Message: searchUnavailableMessage(err),
				Results: []interface{}{},
			})
			return
		}
		respondServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []models.VesselDetails{}
	}
	respondJSON(w, http.StatusOK, results)
}

func searchUnavailableMessage(err error) string {
	if errors.Is(err, ais.ErrNotConfigured) {
		return "Vessel search is not configured on this server"
	}
	return "Vessel search service is temporarily unavailable"
}

// UpdateVesselPosition handles POST /api/marine/update-vessel-position.
func (h *Handler) UpdateVesselPosition(w http.ResponseWriter, r *http.Request) {
	var req models.PositionUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	vessel, err := h.svc.UpdatePositionManually(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.PositionUpdateResponse{Success: true, Vessel: *vessel})
}

// LivePositions handles GET /api/marine/live by upgrading to a WebSocket
// that receives every cached position.
func (h *Handler) LivePositions(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Live position stream unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	if !ws.NewClient(h.wsHub, conn).Start() {
		logging.Ctx(r.Context()).Debug().Msg("Live stream closed, hub is shutting down")
	}
}
