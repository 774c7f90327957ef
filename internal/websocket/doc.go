// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package websocket streams vessel positions to browser clients.

The Hub is registered as a position listener on the AIS normalizer. Every
position that reaches the cache is queued as

	{"type": "vessel_position", "data": {...VesselPosition...}}

and fanned out to connected clients in client-id order. Clients that cannot
keep up (full 256-message buffer) are disconnected rather than allowed to
stall the broadcast loop, and a full broadcast queue drops the message. Both
cases increment live_messages_dropped_total.

The hub runs under the supervisor tree:

	hub := websocket.NewHub()
	svc.AddPositionListener(hub)
	tree.AddMessagingService(hub)

Clients may send {"type":"ping"}; the hub answers {"type":"pong"}. Protocol
level pings are sent every 54 seconds with a 60 second pong deadline.
*/
package websocket
