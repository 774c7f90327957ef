// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AIS: config.AISConfig{
			StreamURL:       "ws://127.0.0.1:1/v0/stream",
			ReconnectDelay:  10 * time.Second,
			IdleTimeout:     5 * time.Minute,
			ReaperInterval:  time.Minute,
			PersistQueue:    16,
			DetailsCacheTTL: time.Minute,
		},
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, Timeout: 5 * time.Second},
		Security: config.SecurityConfig{RateLimitDisabled: true, CORSOrigins: []string{"*"}},
		WAL: config.WALConfig{
			Enabled:       true,
			Path:          filepath.Join(t.TempDir(), "wal"),
			RetryInterval: time.Second,
			MaxRetries:    3,
			EntryTTL:      time.Hour,
		},
	}
}

func openTestDB(t *testing.T, cfg *config.Config) *database.DB {
	t.Helper()
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewAppUnconfiguredServesSamples(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg, openTestDB(t, cfg))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)

	if a.spool == nil {
		t.Error("write spool should be open when WAL is enabled")
	}
	if a.forwarder != nil || a.publisher != nil {
		t.Error("event publishing should be off when NATS is disabled")
	}
	if a.server.Addr != "127.0.0.1:0" {
		t.Errorf("server addr = %q, want 127.0.0.1:0", a.server.Addr)
	}

	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/marine/vessel-positions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var positions []models.VesselPosition
	if err := json.Unmarshal(rec.Body.Bytes(), &positions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(positions) != 4 {
		t.Errorf("got %d sample positions, want 4", len(positions))
	}

	rec = httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/marine/search-vessels?query=breeze", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("search status = %d, want 503", rec.Code)
	}
}

func TestNewAppWithoutSpool(t *testing.T) {
	cfg := testConfig(t)
	cfg.WAL.Enabled = false

	a, err := newApp(cfg, openTestDB(t, cfg))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)

	if a.spool != nil {
		t.Error("write spool should be nil when WAL is disabled")
	}
}

func TestNewAppSpoolPathIsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.WAL.Path = filepath.Join(t.TempDir(), "wal")
	if err := os.WriteFile(cfg.WAL.Path, []byte("not a directory"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := newApp(cfg, openTestDB(t, cfg)); err == nil {
		t.Error("newApp() should fail when the spool path is a file")
	}
}

func TestAppSupervised(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(cfg, openTestDB(t, cfg))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)

	tree, err := supervisor.NewSupervisorTree(nil, supervisor.TreeConfig{ShutdownTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	a.register(tree)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services after shutdown: %d", len(report))
	}
}
