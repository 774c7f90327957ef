// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging
    context so every log line of a request carries request_id
  - Prometheus Metrics: request count, latency and in-flight gauge, labeled
    by the chi route pattern rather than the raw path

Both are plain func(http.Handler) http.Handler values and are mounted with
chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The metrics writer passes Hijack through, so the live WebSocket endpoint can
sit behind it.
*/
package middleware
