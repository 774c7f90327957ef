// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestManager(t *testing.T, apiKey string, handler FrameHandler) (*ConnectionManager, *fakeDialer, *fakeScheduler) {
	t.Helper()
	dialer := &fakeDialer{}
	sched := &fakeScheduler{}
	m := NewConnectionManager(ConnectionConfig{URL: "wss://feed.test/stream", APIKey: apiKey}, dialer, handler)
	m.afterFunc = sched.AfterFunc
	t.Cleanup(func() { _ = m.Close() })
	return m, dialer, sched
}

func TestConnectionManager_UnconfiguredNeverDials(t *testing.T) {
	m, dialer, _ := newTestManager(t, "", nil)

	m.EnsureStarted()
	m.EnsureStarted()

	if dialer.dialCount() != 0 {
		t.Errorf("dials = %d, want 0", dialer.dialCount())
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
}

func TestConnectionManager_SubscribesOnOpen(t *testing.T) {
	m, dialer, _ := newTestManager(t, "secret", nil)

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	conn := dialer.conn(0)
	writes := conn.writes()
	if len(writes) != 1 {
		t.Fatalf("wrote %d frames, want 1 subscription", len(writes))
	}
	var sub Subscription
	if err := json.Unmarshal(writes[0], &sub); err != nil {
		t.Fatalf("subscription is not JSON: %v", err)
	}
	if sub.APIKey != "secret" {
		t.Errorf("APIKey = %q", sub.APIKey)
	}
	if len(sub.FilterMessageTypes) != 1 || sub.FilterMessageTypes[0] != "PositionReport" {
		t.Errorf("FilterMessageTypes = %v", sub.FilterMessageTypes)
	}
}

func TestConnectionManager_EnsureStartedIsIdempotent(t *testing.T) {
	m, dialer, _ := newTestManager(t, "secret", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.EnsureStarted()
		}()
	}
	wg.Wait()
	waitFor(t, "subscribed", m.IsOpen)
	m.EnsureStarted()

	if dialer.dialCount() != 1 {
		t.Errorf("dials = %d, want 1", dialer.dialCount())
	}
}

func TestConnectionManager_DispatchesFramesInOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	m, dialer, _ := newTestManager(t, "secret", func(raw []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(raw))
		return nil
	})

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)
	conn := dialer.conn(0)
	for _, f := range []string{"a", "b", "c"} {
		conn.frames <- []byte(f)
	}
	waitFor(t, "three frames", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("frames = %v, want [a b c]", got)
	}
}

func TestConnectionManager_BadFramesDoNotTerminate(t *testing.T) {
	var handled atomic.Int32
	m, dialer, _ := newTestManager(t, "secret", func(raw []byte) error {
		handled.Add(1)
		switch string(raw) {
		case "panic":
			panic("malformed")
		case "error":
			return ErrUndecodableFrame
		}
		return nil
	})

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)
	conn := dialer.conn(0)
	conn.frames <- []byte("error")
	conn.frames <- []byte("panic")
	conn.frames <- []byte("ok")
	waitFor(t, "three frames", func() bool { return handled.Load() == 3 })

	if !m.IsOpen() {
		t.Error("connection closed after bad frames")
	}
	if dialer.dialCount() != 1 {
		t.Errorf("dials = %d, want 1", dialer.dialCount())
	}
}

func TestConnectionManager_CloseSchedulesOneReconnect(t *testing.T) {
	m, dialer, sched := newTestManager(t, "secret", nil)

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	// Feed side closes the stream.
	close(dialer.conn(0).frames)
	waitFor(t, "reconnect scheduled", func() bool { return len(sched.scheduled()) == 1 })

	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
	timers := sched.scheduled()
	if timers[0].delay != DefaultReconnectDelay {
		t.Errorf("reconnect delay = %v, want %v", timers[0].delay, DefaultReconnectDelay)
	}
	if dialer.dialCount() != 1 {
		t.Errorf("dials before timer fired = %d, want 1", dialer.dialCount())
	}

	timers[0].fn()
	waitFor(t, "resubscribed", m.IsOpen)
	if dialer.dialCount() != 2 {
		t.Errorf("dials = %d, want 2", dialer.dialCount())
	}
	if n := len(sched.scheduled()); n != 1 {
		t.Errorf("scheduled %d reconnects, want 1", n)
	}
}

func TestConnectionManager_DialFailureSchedulesReconnect(t *testing.T) {
	m, dialer, sched := newTestManager(t, "secret", nil)
	dialer.err = errors.New("connection refused")

	m.EnsureStarted()
	waitFor(t, "reconnect scheduled", func() bool { return len(sched.scheduled()) == 1 })

	// A query arriving while the reconnect is pending dials immediately
	// and cancels the pending timer.
	dialer.mu.Lock()
	dialer.err = nil
	dialer.mu.Unlock()
	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	if !sched.scheduled()[0].stopped {
		t.Error("pending reconnect was not stopped")
	}
}

func TestConnectionManager_ForceClose(t *testing.T) {
	m, dialer, sched := newTestManager(t, "secret", nil)

	if m.ForceClose() {
		t.Error("ForceClose() on a closed manager = true")
	}

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	if !m.ForceClose() {
		t.Fatal("ForceClose() = false, want true")
	}
	if !dialer.conn(0).isClosed() {
		t.Error("underlying connection not closed")
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
	if m.ForceClose() {
		t.Error("second ForceClose() = true")
	}
	if n := len(sched.scheduled()); n != 0 {
		t.Errorf("idle close scheduled %d reconnects, want 0", n)
	}

	m.EnsureStarted()
	waitFor(t, "reopened", m.IsOpen)
	if dialer.dialCount() != 2 {
		t.Errorf("dials = %d, want 2", dialer.dialCount())
	}
}

func TestConnectionManager_CloseStopsEverything(t *testing.T) {
	m, dialer, sched := newTestManager(t, "secret", nil)

	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !dialer.conn(0).isClosed() {
		t.Error("connection not closed")
	}
	if n := len(sched.scheduled()); n != 0 {
		t.Errorf("shutdown scheduled %d reconnects, want 0", n)
	}

	m.EnsureStarted()
	if dialer.dialCount() != 1 {
		t.Errorf("EnsureStarted after Close dialed again")
	}
}

func TestConnectionManager_Touch(t *testing.T) {
	m, _, _ := newTestManager(t, "secret", nil)
	before := m.LastUsed()
	m.now = func() time.Time { return before.Add(time.Minute) }
	m.Touch()
	if got := m.LastUsed(); !got.Equal(before.Add(time.Minute)) {
		t.Errorf("LastUsed() = %v, want %v", got, before.Add(time.Minute))
	}
}

func TestConnectionManager_ReconnectIsNotUse(t *testing.T) {
	m, dialer, sched := newTestManager(t, "secret", nil)
	start := m.LastUsed()

	m.now = func() time.Time { return start.Add(4 * time.Minute) }
	m.EnsureStarted()
	waitFor(t, "subscribed", m.IsOpen)

	close(dialer.conn(0).frames)
	waitFor(t, "reconnect scheduled", func() bool { return len(sched.scheduled()) == 1 })

	m.now = func() time.Time { return start.Add(6 * time.Minute) }
	sched.scheduled()[0].fn()
	waitFor(t, "resubscribed", m.IsOpen)

	if got := m.LastUsed(); !got.Equal(start) {
		t.Errorf("LastUsed() = %v after connect and reconnect, want %v", got, start)
	}
}

func TestConnState_String(t *testing.T) {
	tests := map[ConnState]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateSubscribed:   "subscribed",
		ConnState(9):      "unknown(9)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int32(state), got, want)
		}
	}
}
