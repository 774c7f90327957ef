// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package eventprocessor publishes normalized vessel positions to NATS
// through Watermill so other systems can consume the live fleet picture.
//
// Flow:
//
//	Normalizer ──OnPosition──▶ PositionForwarder (bounded queue)
//	                                  │ Serve loop
//	                                  ▼
//	                           Publisher (gobreaker) ──▶ watermill-nats ──▶ NATS
//
// The forwarder never blocks the feed reader: when its queue is full the
// position is dropped and counted. The publisher wraps any
// message.Publisher, so tests run against Watermill's GoChannel pub/sub
// and production uses watermill-nats, optionally through JetStream with
// Nats-Msg-Id deduplication keyed on the event id.
//
// Events are JSON (goccy/go-json) with a schema version:
//
//	{"schema_version":1,"event_id":"...","mmsi":"366998410","latitude":...}
package eventprocessor
