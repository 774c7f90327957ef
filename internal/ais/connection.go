// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
)

// ConnState is the lifecycle state of the feed connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateSubscribed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Conn is one open feed connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens feed connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// FrameHandler processes one inbound frame.
type FrameHandler func(raw []byte) error

// Timer is the part of *time.Timer the manager needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

// textMessage matches websocket.TextMessage.
const textMessage = 1

// DefaultReconnectDelay is the fixed wait before reopening a closed feed.
const DefaultReconnectDelay = 10 * time.Second

// Subscription is the frame sent once a connection opens.
type Subscription struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

// NewGlobalSubscription subscribes to position reports for the whole globe.
func NewGlobalSubscription(apiKey string) Subscription {
	return Subscription{
		APIKey:             apiKey,
		BoundingBoxes:      [][][2]float64{{{-180, -90}, {180, 90}}},
		FilterMessageTypes: []string{MessageTypePositionReport},
	}
}

// ConnectionConfig configures a ConnectionManager.
type ConnectionConfig struct {
	URL            string
	APIKey         string
	ReconnectDelay time.Duration
}

// ConnectionManager owns the single feed connection. It opens the
// connection on demand, feeds every frame to the handler and reconnects
// after a fixed delay when the feed side closes. All failures end in
// StateDisconnected; nothing escapes to callers.
type ConnectionManager struct {
	cfg       ConnectionConfig
	dialer    Dialer
	handler   FrameHandler
	afterFunc AfterFunc
	now       func() time.Time
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     ConnState
	conn      Conn
	gen       uint64 // bumped per attempt; stale closes are ignored
	reconnect Timer
	shutdown  bool

	lastUsed atomic.Int64
	wg       sync.WaitGroup
}

// NewConnectionManager creates a manager in StateDisconnected. Nothing is
// dialed until EnsureStarted.
func NewConnectionManager(cfg ConnectionConfig, dialer Dialer, handler FrameHandler) *ConnectionManager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &ConnectionManager{
		cfg:     cfg,
		dialer:  dialer,
		handler: handler,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now:    time.Now,
		log:    logging.WithComponent("ais-feed"),
		ctx:    ctx,
		cancel: cancel,
	}
	m.lastUsed.Store(m.now().UnixNano())
	return m
}

// Configured reports whether a feed credential is set.
func (m *ConnectionManager) Configured() bool {
	return m.cfg.APIKey != ""
}

// EnsureStarted opens the feed unless it is already open or opening, no
// credential is configured, or the manager is closed. The dial happens
// in the background. Only Touch counts as use; reconnects do not.
func (m *ConnectionManager) EnsureStarted() {
	if !m.Configured() {
		return
	}

	m.mu.Lock()
	if m.shutdown || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.SetConnectionState(metrics.ConnStateConnecting)
	go m.run(gen)
}

// Touch marks the connection as in use.
func (m *ConnectionManager) Touch() {
	m.lastUsed.Store(m.now().UnixNano())
}

// LastUsed returns the time of the last Touch.
func (m *ConnectionManager) LastUsed() time.Time {
	return time.Unix(0, m.lastUsed.Load())
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen reports whether a subscribed connection exists.
func (m *ConnectionManager) IsOpen() bool {
	return m.State() == StateSubscribed
}

func (m *ConnectionManager) run(gen uint64) {
	defer m.wg.Done()

	connLog := m.log.With().Str("correlation_id", logging.GenerateCorrelationID()).Logger()
	connLog.Info().Str("url", m.cfg.URL).Msg("Connecting to AIS feed")

	conn, err := m.dialer.Dial(m.ctx, m.cfg.URL)
	metrics.RecordConnectAttempt(err)
	if err != nil {
		connLog.Warn().Err(err).Msg("AIS feed dial failed")
		m.onClose(gen)
		return
	}

	payload, err := json.Marshal(NewGlobalSubscription(m.cfg.APIKey))
	if err == nil {
		err = conn.WriteMessage(textMessage, payload)
	}
	if err != nil {
		connLog.Warn().Err(err).Msg("AIS feed subscription failed")
		_ = conn.Close() //nolint:errcheck // connection is being discarded
		m.onClose(gen)
		return
	}

	m.mu.Lock()
	if m.shutdown || m.gen != gen {
		m.mu.Unlock()
		_ = conn.Close() //nolint:errcheck // superseded connection
		return
	}
	m.conn = conn
	m.state = StateSubscribed
	m.mu.Unlock()

	metrics.SetConnectionState(metrics.ConnStateSubscribed)
	connLog.Info().Msg("Subscribed to AIS feed")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			connLog.Info().Err(err).Msg("AIS feed connection closed")
			break
		}
		m.onFrame(raw)
	}
	m.onClose(gen)
}

// onFrame never lets a frame error or panic escape the read loop.
func (m *ConnectionManager) onFrame(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordFrame("panic")
			m.log.Error().Interface("panic", r).Msg("Recovered panic while handling AIS frame")
		}
	}()
	if m.handler == nil {
		return
	}
	if err := m.handler(raw); err != nil {
		m.log.Debug().Err(err).Int("bytes", len(raw)).Msg("Dropped AIS frame")
	}
}

// onClose returns the manager to StateDisconnected and schedules one
// reconnect. Closes from a superseded attempt are ignored.
func (m *ConnectionManager) onClose(gen uint64) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateDisconnected
	schedule := !m.shutdown && m.reconnect == nil
	if schedule {
		m.reconnect = m.afterFunc(m.cfg.ReconnectDelay, m.fireReconnect)
	}
	m.mu.Unlock()

	metrics.SetConnectionState(metrics.ConnStateDisconnected)
	if schedule {
		metrics.AISReconnectsScheduled.Inc()
		m.log.Info().Dur("delay", m.cfg.ReconnectDelay).Msg("AIS feed reconnect scheduled")
	}
}

func (m *ConnectionManager) fireReconnect() {
	m.mu.Lock()
	m.reconnect = nil
	m.mu.Unlock()
	m.EnsureStarted()
}

// ForceClose closes the connection if it is open and reports whether it
// did. No reconnect is scheduled; the next EnsureStarted reopens.
func (m *ConnectionManager) ForceClose() bool {
	m.mu.Lock()
	if m.state != StateSubscribed || m.conn == nil {
		m.mu.Unlock()
		return false
	}
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.gen++
	m.mu.Unlock()

	metrics.SetConnectionState(metrics.ConnStateDisconnected)
	if err := conn.Close(); err != nil {
		m.log.Debug().Err(err).Msg("Error closing idle AIS feed connection")
	}
	return true
}

// Close shuts the manager down: pending reconnects are canceled, the
// connection is closed and the reader goroutine is awaited. EnsureStarted
// is a no-op afterwards.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.gen++
	m.mu.Unlock()

	m.cancel()
	var err error
	if conn != nil {
		err = conn.Close()
	}
	m.wg.Wait()
	metrics.SetConnectionState(metrics.ConnStateDisconnected)
	m.log.Info().Msg("AIS feed connection manager closed")
	return err
}
