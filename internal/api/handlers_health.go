// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/fleetwatch/internal/ais"
)

const readinessTimeout = 2 * time.Second

// HealthResponse is returned by both probes.
type HealthResponse struct {
	Status            string      `json:"status"`
	DatabaseConnected *bool       `json:"databaseConnected,omitempty"`
	LiveClients       *int        `json:"liveClients,omitempty"`
	Feed              *ais.Status `json:"feed,omitempty"`
	Uptime            float64     `json:"uptime"`
	Timestamp         time.Time   `json:"timestamp"`
}

// HealthLive handles liveness probe requests. It answers 200 whenever the
// process can serve HTTP, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Uptime:    time.Since(h.startTime).Seconds(),
		Timestamp: time.Now().UTC(),
	})
}

// HealthReady handles readiness probe requests. Only the vessel store
// gates readiness; an unconfigured or disconnected feed is reported but
// is a supported mode.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	dbConnected := h.db == nil || h.db.Ping(ctx) == nil
	feed := h.svc.Status()

	resp := HealthResponse{
		Status:            "ready",
		DatabaseConnected: &dbConnected,
		Feed:              &feed,
		Uptime:            time.Since(h.startTime).Seconds(),
		Timestamp:         time.Now().UTC(),
	}
	if h.wsHub != nil {
		clients := h.wsHub.GetClientCount()
		resp.LiveClients = &clients
	}

	status := http.StatusOK
	if !dbConnected {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
	}
	respondJSON(w, status, resp)
}
