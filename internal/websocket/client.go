// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send pings
	clientBuffer   = 256
)

// clientIDCounter gives clients a stable broadcast order.
var clientIDCounter atomic.Uint64

// Client is one browser connection on the live position stream.
//
// The hub never closes send. It ends a client by closing done, which the
// write pump observes; the write pump is the only goroutine writing to
// the connection, including pong replies requested by the read pump.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn

	send chan Message
	pong chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return newClient(hub, conn, clientBuffer)
}

func newClient(hub *Hub, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, buffer),
		pong: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Done is closed once the client has been dropped by the hub or its
// connection has failed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// close marks the client finished. Safe to call from any goroutine, more
// than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Start registers the client with the hub and runs its pumps. When the hub
// has already stopped the connection is closed and Start returns false.
func (c *Client) Start() bool {
	select {
	case c.hub.Register <- c:
	case <-c.hub.stopped:
		c.close()
		_ = c.conn.Close()
		return false
	}
	go c.writePump()
	go c.readPump()
	return true
}

// unregister tells a running hub the client is gone. It does not wait on a
// hub that has stopped.
func (c *Client) unregister() {
	select {
	case c.hub.Unregister <- c:
	case <-c.hub.stopped:
	}
	c.close()
}

// readPump reads client pings until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.unregister()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		if msg.Type == MessageTypePing {
			// One pending pong is enough; the write pump may be gone.
			select {
			case c.pong <- struct{}{}:
			default:
			}
		}
	}
}

// writePump owns every write to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			if !c.writeJSON(message) {
				return
			}

		case <-c.pong:
			if !c.writeJSON(Message{Type: MessageTypePong}) {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeJSON writes one message and reports whether the connection is still
// usable. Messages that fail to encode are skipped.
func (c *Client) writeJSON(message Message) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set write deadline")
		return false
	}
	data, err := MarshalMessage(message)
	if err != nil {
		logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
		return true
	}
	return c.conn.WriteMessage(websocket.TextMessage, data) == nil
}
