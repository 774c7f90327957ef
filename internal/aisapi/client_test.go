// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package aisapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.AISConfig{
		APIKey:      "test-key",
		RESTBaseURL: srv.URL + "/",
		RESTTimeout: 2 * time.Second,
	})
}

func TestClient_VesselDetailsRequest(t *testing.T) {
	var (
		gotPath, gotKey, gotMethod string
		gotBody                    map[string]string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"mmsi":366998410,"name":" AURORA ","imo":9123456,"callSign":"WDA1234","shipType":"Pleasure Craft","flag":"US","length":"42.5","width":8.1}]`))
	})

	results, err := client.VesselDetails(context.Background(), "366998410")
	if err != nil {
		t.Fatalf("VesselDetails() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/vessels/details" {
		t.Errorf("request = %s %s, want POST /vessels/details", gotMethod, gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if gotBody["mmsi"] != "366998410" {
		t.Errorf("body = %v", gotBody)
	}

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	d := results[0]
	if d.MMSI != "366998410" || d.Name != "AURORA" || d.IMO != "9123456" || d.CallSign != "WDA1234" {
		t.Errorf("details = %+v", d)
	}
	if d.Type != "Pleasure Craft" || d.Length != 42.5 || d.Width != 8.1 {
		t.Errorf("details = %+v", d)
	}
}

func TestClient_SearchRequest(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vessels/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		gotQuery = body["query"]
		_, _ = w.Write([]byte(`{"vessels":[{"mmsi":"1"},{"mmsi":"2","name":"Two"}]}`))
	})

	results, err := client.SearchVessels(context.Background(), "sea breeze")
	if err != nil {
		t.Fatalf("SearchVessels() error = %v", err)
	}
	if gotQuery != "sea breeze" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(results) != 2 || results[1].Name != "Two" {
		t.Errorf("results = %+v", results)
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "array", body: `[{"mmsi":1},{"mmsi":2}]`, want: 2},
		{name: "empty array", body: `[]`, want: 0},
		{name: "null", body: `null`, want: 0},
		{name: "empty body", body: ``, want: 0},
		{name: "data wrapper", body: `{"data":[{"mmsi":1}]}`, want: 1},
		{name: "single object", body: `{"mmsi":"366998410","name":"Aurora"}`, want: 1},
		{name: "empty object", body: `{}`, want: 0},
		{name: "garbage", body: `<html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := decodeRecords([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("decodeRecords() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeRecords() error = %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("decodeRecords() = %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestClient_Non2xxIsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.SearchVessels(context.Background(), "x")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusBadGateway || !strings.Contains(se.Body, "upstream exploded") {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewClient(&config.AISConfig{APIKey: "k", RESTBaseURL: srv.URL, RESTTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.VesselDetails(context.Background(), "1")
	if err == nil {
		t.Fatal("VesselDetails() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request took %v, timeout not applied", elapsed)
	}
}

func TestClient_NoAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	t.Cleanup(srv.Close)
	client := NewClient(&config.AISConfig{RESTBaseURL: srv.URL})

	if _, err := client.SearchVessels(context.Background(), "x"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
	if calls.Load() != 0 {
		t.Error("request sent without API key")
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(&config.AISConfig{
		APIKey:        "k",
		RESTBaseURL:   srv.URL,
		RESTRateLimit: 0.001,
		RESTBurst:     1,
	})

	if _, err := client.SearchVessels(context.Background(), "first"); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.SearchVessels(ctx, "second"); err == nil {
		t.Error("second call error = nil, want rate limiter error")
	}
}
