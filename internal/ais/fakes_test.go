// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/models"
)

var errFeedClosed = errors.New("feed closed")

// fakeConn delivers frames pushed into it and records what was written.
type fakeConn struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f, ok := <-c.frames:
		if !ok {
			return 0, nil, errFeedClosed
		}
		return textMessage, f, nil
	case <-c.closed:
		return 0, nil, errFeedClosed
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

// fakeDialer hands out a new fakeConn per dial, or err when set.
type fakeDialer struct {
	mu    sync.Mutex
	err   error
	conns []*fakeConn
	dials int
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

// fakeScheduler records AfterFunc calls without running them. Tests fire
// them explicitly; running them inline would deadlock the manager.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	s.calls = append(s.calls, t)
	return t
}

func (s *fakeScheduler) scheduled() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.calls...)
}

// fakeStore is an in-memory VesselStore.
type fakeStore struct {
	mu      sync.Mutex
	vessels []models.Vessel
	err     error
	writes  int
}

func (s *fakeStore) ListVessels(_ context.Context) ([]models.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Vessel(nil), s.vessels...), nil
}

func (s *fakeStore) FindByMMSI(_ context.Context, mmsi string) ([]models.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Vessel
	for _, v := range s.vessels {
		if v.MMSI == mmsi {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) GetVessel(_ context.Context, id int64) (*models.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, v := range s.vessels {
		if v.ID == id {
			found := v
			return &found, nil
		}
	}
	return nil, database.ErrVesselNotFound
}

func (s *fakeStore) UpdatePositionByMMSI(_ context.Context, mmsi string, upd database.PositionUpdate) (int64, error) {
	return s.update(func(v *models.Vessel) bool { return v.MMSI == mmsi }, upd)
}

func (s *fakeStore) UpdatePositionByMMSIIfNewer(_ context.Context, mmsi string, upd database.PositionUpdate) (int64, error) {
	return s.update(func(v *models.Vessel) bool {
		return v.MMSI == mmsi && (v.LastPositionUpdate == nil || !v.LastPositionUpdate.After(upd.At))
	}, upd)
}

func (s *fakeStore) UpdatePositionByID(_ context.Context, id int64, upd database.PositionUpdate) (int64, error) {
	return s.update(func(v *models.Vessel) bool { return v.ID == id }, upd)
}

func (s *fakeStore) update(match func(*models.Vessel) bool, upd database.PositionUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for i := range s.vessels {
		v := &s.vessels[i]
		if !match(v) {
			continue
		}
		lat, lon, at := upd.Latitude, upd.Longitude, upd.At
		v.Latitude, v.Longitude, v.LastPositionUpdate = &lat, &lon, &at
		if upd.Heading != nil {
			h := *upd.Heading
			v.Heading = &h
		}
		if upd.Speed != nil {
			sp := *upd.Speed
			v.Speed = &sp
		}
		n++
	}
	return n, nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakeUpstream is a canned registry.
type fakeUpstream struct {
	details  []models.VesselDetails
	results  []models.VesselDetails
	err      error
	searches int
}

func (u *fakeUpstream) VesselDetails(_ context.Context, _ string) ([]models.VesselDetails, error) {
	return u.details, u.err
}

func (u *fakeUpstream) SearchVessels(_ context.Context, _ string) ([]models.VesselDetails, error) {
	u.searches++
	return u.results, u.err
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func ptr[T any](v T) *T { return &v }
