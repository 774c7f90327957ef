// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package api serves the marine query endpoints, the live position stream,
// health probes and Prometheus metrics over a chi router.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fleetwatch/internal/ais"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// MarineService is the query surface the handlers depend on.
type MarineService interface {
	FleetVessels(ctx context.Context) []models.FleetVessel
	Positions(ctx context.Context, q ais.PositionQuery) []models.VesselPosition
	VesselDetails(ctx context.Context, mmsi string) models.VesselDetails
	SearchVessels(ctx context.Context, query string) ([]models.VesselDetails, error)
	UpdatePositionManually(ctx context.Context, req *models.PositionUpdateRequest) (*models.Vessel, error)
	Status() ais.Status
}

// Pinger reports vessel store reachability for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	svc       MarineService
	db        Pinger
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a handler. db and wsHub may be nil; readiness then
// skips the store check and the live endpoint answers 503.
func NewHandler(svc MarineService, db Pinger, wsHub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		svc:       svc,
		db:        db,
		wsHub:     wsHub,
		config:    cfg,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Browsers always send Origin, so its absence is
// rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
