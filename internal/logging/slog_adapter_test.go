// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Levels(t *testing.T) {
	SetLevelString("debug")

	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		SetLogger(zerolog.New(&buf))

		slog.New(NewSlogHandler()).Log(context.Background(), tt.level, "service restarted")

		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("level %v: output %s missing %s", tt.level, buf.String(), tt.want)
		}
	}
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	SetLevelString("debug")
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	logger := slog.New(NewSlogHandler()).
		With("tree", "root").
		WithGroup("service").
		With("name", "idle-reaper")

	logger.Info("backoff",
		"attempt", 3,
		"ok", false,
		"wait", 10*time.Second,
		slog.Group("feed", "state", "subscribed"),
	)

	out := buf.String()
	for _, want := range []string{
		`"tree":"root"`,
		`"service.name":"idle-reaper"`,
		`"service.attempt":3`,
		`"service.ok":false`,
		`"service.feed.state":"subscribed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestSlogHandler_WithGroupEmpty(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler()
	if got := h.WithGroup(""); got != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
