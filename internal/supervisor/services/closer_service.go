// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

// CloserService holds a resource open for the life of the tree and closes
// it on shutdown. The feed connection (ais.Service) and the NATS publisher
// are run this way.
type CloserService struct {
	name            string
	closer          io.Closer
	shutdownTimeout time.Duration
}

// NewCloserService wraps c. A non-positive timeout uses 10s.
func NewCloserService(name string, c io.Closer, shutdownTimeout time.Duration) *CloserService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &CloserService{
		name:            name,
		closer:          c,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service. It blocks until ctx is canceled, then
// closes the resource, giving up after the shutdown timeout.
func (s *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()

	done := make(chan error, 1)
	go func() { done <- s.closer.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logging.Warn().Err(err).Str("service", s.name).Msg("Close failed during shutdown")
			return fmt.Errorf("%s close failed: %w", s.name, err)
		}
	case <-time.After(s.shutdownTimeout):
		logging.Warn().Str("service", s.name).Dur("timeout", s.shutdownTimeout).Msg("Close timed out during shutdown")
		return fmt.Errorf("%s close timed out after %s", s.name, s.shutdownTimeout)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *CloserService) String() string {
	return s.name
}
