// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package eventprocessor

import (
	"context"
	"time"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

const publishTimeout = 5 * time.Second

// PositionPublisher is satisfied by *Publisher.
type PositionPublisher interface {
	PublishPosition(ctx context.Context, pos *models.VesselPosition) error
}

// PositionForwarder decouples the feed reader from the message bus. It is
// registered as a position listener and published from its own goroutine.
type PositionForwarder struct {
	pub   PositionPublisher
	queue chan models.VesselPosition
}

// NewPositionForwarder creates a forwarder with a bounded queue.
func NewPositionForwarder(pub PositionPublisher, queueSize int) *PositionForwarder {
	if queueSize <= 0 {
		queueSize = DefaultForwarderQueue
	}
	return &PositionForwarder{
		pub:   pub,
		queue: make(chan models.VesselPosition, queueSize),
	}
}

// OnPosition queues pos without blocking; a full queue drops it.
func (f *PositionForwarder) OnPosition(pos models.VesselPosition) {
	select {
	case f.queue <- pos:
	default:
		metrics.PositionEventsPublished.WithLabelValues("dropped").Inc()
		logging.Warn().Str("mmsi", pos.MMSI).Msg("Position event queue full, dropping event")
	}
}

// Serve publishes queued positions until ctx is canceled. It implements
// suture.Service.
func (f *PositionForwarder) Serve(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Info().Msg("Position event forwarder started")

	for {
		select {
		case <-ctx.Done():
			logging.Ctx(ctx).Info().Int("pending", len(f.queue)).Msg("Position event forwarder stopped")
			return ctx.Err()
		case pos := <-f.queue:
			f.publish(ctx, &pos)
		}
	}
}

func (f *PositionForwarder) publish(ctx context.Context, pos *models.VesselPosition) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := f.pub.PublishPosition(pubCtx, pos); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("mmsi", pos.MMSI).Msg("Position event publish failed")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (f *PositionForwarder) String() string {
	return "position-event-forwarder"
}
