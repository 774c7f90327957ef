// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/fleetwatch/internal/ais"
	"github.com/tomtom215/fleetwatch/internal/aisapi"
	"github.com/tomtom215/fleetwatch/internal/api"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/eventprocessor"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
	"github.com/tomtom215/fleetwatch/internal/supervisor/services"
	"github.com/tomtom215/fleetwatch/internal/wal"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

const (
	httpShutdownTimeout   = 10 * time.Second
	closerShutdownTimeout = 5 * time.Second
)

// app holds every long-lived component built from one configuration.
type app struct {
	cfg       *config.Config
	svc       *ais.Service
	hub       *ws.Hub
	spool     *wal.BadgerWAL
	publisher *eventprocessor.Publisher
	forwarder *eventprocessor.PositionForwarder
	server    *http.Server
}

// newApp wires the pipeline around an open vessel store.
func newApp(cfg *config.Config, db *database.DB) (*app, error) {
	a := &app{cfg: cfg}

	// A nil interface, not a typed nil, marks the registry as absent.
	var upstream ais.Upstream
	if cfg.AIS.Configured() {
		upstream = aisapi.NewCircuitBreakerClient(&cfg.AIS)
	} else {
		logging.Warn().Msg("AISSTREAM_API_KEY not set, serving sample data and refusing searches")
	}

	a.svc = ais.NewService(cfg.AIS, db, upstream, ais.NewWebSocketDialer())

	a.hub = ws.NewHub()
	a.svc.AddPositionListener(a.hub)

	if cfg.WAL.Enabled {
		spool, err := wal.Open(wal.ConfigFromWAL(&cfg.WAL))
		if err != nil {
			return nil, fmt.Errorf("open write spool: %w", err)
		}
		a.spool = spool
		a.svc.Sink().SetSpool(spool)
	}

	if cfg.NATS.Enabled {
		pub, err := eventprocessor.NewNATSPublisher(eventprocessor.PublisherConfigFromNATS(&cfg.NATS), nil)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create event publisher: %w", err)
		}
		pub.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")))
		a.publisher = pub
		a.forwarder = eventprocessor.NewPositionForwarder(pub, eventprocessor.DefaultForwarderQueue)
		a.svc.AddPositionListener(a.forwarder)
		logging.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Bool("jetstream", cfg.NATS.JetStream).
			Msg("Position events enabled")
	}

	handler := api.NewHandler(a.svc, db, a.hub, cfg)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromSecurity(&cfg.Security))

	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}
	return a, nil
}

// register adds every worker to its supervisor layer.
func (a *app) register(tree *supervisor.SupervisorTree) {
	tree.AddDataService(a.svc.Sink())
	if a.spool != nil {
		tree.AddDataService(wal.NewRetryLoop(a.spool, a.svc.Sink()))
	}

	tree.AddIngestService(a.svc.Reaper())
	tree.AddIngestService(services.NewCloserService("ais-feed", a.svc, closerShutdownTimeout))
	tree.AddIngestService(a.hub)
	if a.forwarder != nil {
		tree.AddIngestService(a.forwarder)
		tree.AddIngestService(services.NewCloserService("event-publisher", a.publisher, closerShutdownTimeout))
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, httpShutdownTimeout))
}

// close releases what the supervisor does not own. Safe after a partial
// newApp.
func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event publisher")
		}
	}
	if a.spool != nil {
		if err := a.spool.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing write spool")
		}
	}
}
