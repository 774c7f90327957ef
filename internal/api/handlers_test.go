// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/ais"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// fakeService records the queries it receives and returns canned results.
type fakeService struct {
	fleet       []models.FleetVessel
	positions   []models.VesselPosition
	lastQuery   ais.PositionQuery
	details     models.VesselDetails
	lastDetail  string
	search      []models.VesselDetails
	searchErr   error
	updated     *models.Vessel
	updateErr   error
	lastUpdate  *models.PositionUpdateRequest
	status      ais.Status
	updateCalls int
}

func (f *fakeService) FleetVessels(context.Context) []models.FleetVessel { return f.fleet }

func (f *fakeService) Positions(_ context.Context, q ais.PositionQuery) []models.VesselPosition {
	f.lastQuery = q
	return f.positions
}

func (f *fakeService) VesselDetails(_ context.Context, mmsi string) models.VesselDetails {
	f.lastDetail = mmsi
	d := f.details
	d.MMSI = mmsi
	return d
}

func (f *fakeService) SearchVessels(context.Context, string) ([]models.VesselDetails, error) {
	return f.search, f.searchErr
}

func (f *fakeService) UpdatePositionManually(_ context.Context, req *models.PositionUpdateRequest) (*models.Vessel, error) {
	f.updateCalls++
	f.lastUpdate = req
	return f.updated, f.updateErr
}

func (f *fakeService) Status() ais.Status { return f.status }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(svc MarineService, db Pinger) http.Handler {
	cfg := &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"http://localhost:3000"}}}
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	return NewRouter(NewHandler(svc, db, nil, cfg), mw).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestFleetVessels(t *testing.T) {
	svc := &fakeService{fleet: []models.FleetVessel{
		{Vessel: models.Vessel{ID: 1, Name: "Serenity", MMSI: "319904000"}, Live: true},
	}}
	rec := doRequest(t, newTestRouter(svc, nil), http.MethodGet, "/api/marine/fleet-vessels", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []models.FleetVessel
	decodeBody(t, rec, &got)
	if len(got) != 1 || got[0].Name != "Serenity" || !got[0].Live {
		t.Errorf("body = %+v", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestVesselPositions_QueryParsing(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantAll    bool
		wantIDs    []string
		wantBounds *models.Bounds
	}{
		{
			name:       "identifiers repeated and comma separated",
			target:     "/api/marine/vessel-positions?mmsi=319904000&mmsi=366998410,367671640",
			wantStatus: http.StatusOK,
			wantIDs:    []string{"319904000", "366998410", "367671640"},
		},
		{
			name:       "showAll without bounds",
			target:     "/api/marine/vessel-positions?showAll=true",
			wantStatus: http.StatusOK,
			wantAll:    true,
		},
		{
			name:       "showAll with bounds",
			target:     "/api/marine/vessel-positions?showAll=true&north=10&south=0&east=10&west=0",
			wantStatus: http.StatusOK,
			wantAll:    true,
			wantBounds: &models.Bounds{North: 10, South: 0, East: 10, West: 0},
		},
		{
			name:       "partial bounds default to globe",
			target:     "/api/marine/vessel-positions?showAll=true&north=30",
			wantStatus: http.StatusOK,
			wantAll:    true,
			wantBounds: &models.Bounds{North: 30, South: -90, East: 180, West: -180},
		},
		{
			name:       "non numeric bound",
			target:     "/api/marine/vessel-positions?showAll=true&north=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "latitude out of range",
			target:     "/api/marine/vessel-positions?showAll=true&north=95",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "south above north",
			target:     "/api/marine/vessel-positions?showAll=true&north=10&south=20",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{positions: []models.VesselPosition{{MMSI: "319904000"}}}
			rec := doRequest(t, newTestRouter(svc, nil), http.MethodGet, tt.target, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var env ErrorResponse
				decodeBody(t, rec, &env)
				if env.Error != CodeValidation || env.Message == "" {
					t.Errorf("envelope = %+v", env)
				}
				return
			}
			q := svc.lastQuery
			if q.All != tt.wantAll {
				t.Errorf("All = %v, want %v", q.All, tt.wantAll)
			}
			if fmt.Sprint(q.Identifiers) != fmt.Sprint(tt.wantIDs) && len(tt.wantIDs) > 0 {
				t.Errorf("Identifiers = %v, want %v", q.Identifiers, tt.wantIDs)
			}
			switch {
			case tt.wantBounds == nil && q.Bounds != nil:
				t.Errorf("Bounds = %+v, want nil", *q.Bounds)
			case tt.wantBounds != nil && (q.Bounds == nil || *q.Bounds != *tt.wantBounds):
				t.Errorf("Bounds = %v, want %+v", q.Bounds, *tt.wantBounds)
			}
		})
	}
}

func TestVesselDetails(t *testing.T) {
	svc := &fakeService{details: models.VesselDetails{Name: "Unknown Vessel"}}
	rec := doRequest(t, newTestRouter(svc, nil), http.MethodGet, "/api/marine/vessel-details/999999999", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastDetail != "999999999" {
		t.Errorf("service got identifier %q", svc.lastDetail)
	}
	var got models.VesselDetails
	decodeBody(t, rec, &got)
	if got.MMSI != "999999999" || got.Name != "Unknown Vessel" {
		t.Errorf("body = %+v", got)
	}
}

func TestSearchVessels(t *testing.T) {
	tests := []struct {
		name        string
		svc         *fakeService
		wantStatus  int
		wantCode    string
		wantResults bool
	}{
		{
			name:       "success",
			svc:        &fakeService{search: []models.VesselDetails{{MMSI: "366998410", Name: "Aurora"}}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no matches is an empty array",
			svc:        &fakeService{},
			wantStatus: http.StatusOK,
		},
		{
			name:        "unconfigured is 503",
			svc:         &fakeService{searchErr: fmt.Errorf("%w: %w", ais.ErrServiceUnavailable, ais.ErrNotConfigured)},
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    CodeServiceUnavailable,
			wantResults: true,
		},
		{
			name:        "upstream failure is 503",
			svc:         &fakeService{searchErr: fmt.Errorf("%w: upstream timeout", ais.ErrServiceUnavailable)},
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    CodeServiceUnavailable,
			wantResults: true,
		},
		{
			name:       "empty query is 400",
			svc:        &fakeService{searchErr: fmt.Errorf("%w: query is required", ais.ErrValidation)},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestRouter(tt.svc, nil), http.MethodGet, "/api/marine/search-vessels?query=aurora", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				var got []models.VesselDetails
				decodeBody(t, rec, &got)
				if got == nil {
					t.Error("Expected JSON array, got null")
				}
				return
			}

			var env map[string]interface{}
			decodeBody(t, rec, &env)
			if env["error"] != tt.wantCode {
				t.Errorf("error = %v, want %s", env["error"], tt.wantCode)
			}
			if msg, _ := env["message"].(string); msg == "" {
				t.Error("Expected a message")
			}
			results, hasResults := env["results"]
			if hasResults != tt.wantResults {
				t.Fatalf("results present = %v, want %v", hasResults, tt.wantResults)
			}
			if tt.wantResults {
				if arr, ok := results.([]interface{}); !ok || len(arr) != 0 {
					t.Errorf("results = %v, want []", results)
				}
			}
		})
	}
}

func TestUpdateVesselPosition(t *testing.T) {
	lat, lon := 25.77, -80.13
	verr := validation.ValidateStruct(&models.PositionUpdateRequest{MMSI: "366998410", Longitude: &lon})

	tests := []struct {
		name       string
		body       string
		svc        *fakeService
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{
			name:       "success",
			body:       `{"mmsi":"366998410","latitude":25.77,"longitude":-80.13,"heading":90}`,
			svc:        &fakeService{updated: &models.Vessel{ID: 2, Name: "Aurora", MMSI: "366998410", Latitude: &lat, Longitude: &lon}},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "validation error",
			body:       `{"mmsi":"366998410","longitude":-80.13}`,
			svc:        &fakeService{updateErr: fmt.Errorf("%w: %w", ais.ErrValidation, verr)},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
			wantCalls:  1,
		},
		{
			name:       "unknown vessel",
			body:       `{"mmsi":"999999999","latitude":1,"longitude":2}`,
			svc:        &fakeService{updateErr: fmt.Errorf("%w: mmsi 999999999", ais.ErrNotFound)},
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
			wantCalls:  1,
		},
		{
			name:       "store failure",
			body:       `{"vesselId":3,"latitude":1,"longitude":2}`,
			svc:        &fakeService{updateErr: errors.New("duckdb: connection closed")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
			wantCalls:  1,
		},
		{
			name:       "numeric mmsi",
			body:       `{"mmsi":366998410,"latitude":25.77,"longitude":-80.13}`,
			svc:        &fakeService{updated: &models.Vessel{ID: 2, Name: "Aurora", MMSI: "366998410", Latitude: &lat, Longitude: &lon}},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "malformed body",
			body:       `{"mmsi":`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
			wantCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestRouter(tt.svc, nil), http.MethodPost, "/api/marine/update-vessel-position", []byte(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.svc.updateCalls != tt.wantCalls {
				t.Errorf("service calls = %d, want %d", tt.svc.updateCalls, tt.wantCalls)
			}

			if tt.wantStatus == http.StatusOK {
				var got models.PositionUpdateResponse
				decodeBody(t, rec, &got)
				if !got.Success || got.Vessel.MMSI != "366998410" {
					t.Errorf("body = %+v", got)
				}
				if tt.svc.lastUpdate == nil || tt.svc.lastUpdate.MMSI != "366998410" {
					t.Errorf("request = %+v, want mmsi 366998410", tt.svc.lastUpdate)
				}
				return
			}

			var env ErrorResponse
			decodeBody(t, rec, &env)
			if env.Error != tt.wantCode || env.Message == "" {
				t.Errorf("envelope = %+v", env)
			}
			if tt.wantStatus == http.StatusInternalServerError && env.Message != "Internal server error" {
				t.Errorf("internal detail leaked: %q", env.Message)
			}
		})
	}
}

func TestUpdateVesselPosition_ValidationDetails(t *testing.T) {
	lon := -80.13
	verr := validation.ValidateStruct(&models.PositionUpdateRequest{MMSI: "366998410", Longitude: &lon})
	if verr == nil {
		t.Fatal("expected validation failure for missing latitude")
	}
	svc := &fakeService{updateErr: fmt.Errorf("%w: %w", ais.ErrValidation, verr)}

	rec := doRequest(t, newTestRouter(svc, nil), http.MethodPost, "/api/marine/update-vessel-position",
		[]byte(`{"mmsi":"366998410","longitude":-80.13}`))

	var env ErrorResponse
	decodeBody(t, rec, &env)
	if env.Details["field"] != "latitude" {
		t.Errorf("details = %v, want field latitude", env.Details)
	}
}

func TestHealthProbes(t *testing.T) {
	svc := &fakeService{status: ais.Status{Connection: "disconnected"}}

	t.Run("live", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(svc, fakePinger{err: errors.New("down")}), http.MethodGet, "/health/live", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(svc, fakePinger{}), http.MethodGet, "/health/ready", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var got HealthResponse
		decodeBody(t, rec, &got)
		if got.Status != "ready" || got.Feed == nil || got.Feed.Connection != "disconnected" {
			t.Errorf("body = %+v", got)
		}
	})

	t.Run("not ready when store unreachable", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(svc, fakePinger{err: errors.New("down")}), http.MethodGet, "/health/ready", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&fakeService{}, nil)
	doRequest(t, h, http.MethodGet, "/api/marine/fleet-vessels", nil)

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("api_requests_total")) {
		t.Error("Expected API request counter in exposition")
	}
}

func TestLivePositions_NoHub(t *testing.T) {
	rec := doRequest(t, newTestRouter(&fakeService{}, nil), http.MethodGet, "/api/marine/live", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestRouter(&fakeService{}, nil)

	if rec := doRequest(t, h, http.MethodGet, "/api/marine/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodDelete, "/api/marine/fleet-vessels", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d, want 405", rec.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", ais.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", ais.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", ais.ErrServiceUnavailable, ais.ErrNotConfigured), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
