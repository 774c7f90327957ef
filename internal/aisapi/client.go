// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package aisapi is the client for the upstream vessel registry REST API.

Endpoints (POST, JSON body, X-API-Key header):
  - {base}/vessels/details  {"mmsi": "<id>"}
  - {base}/vessels/search   {"query": "<text>"}

Both return an array of vessel description objects in which every field
is optional. The client applies a token bucket rate limit and a request
timeout; CircuitBreakerClient adds failure isolation on top.
*/
package aisapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// maxErrorBodySize bounds how much of an error response is kept.
const maxErrorBodySize = 4 * 1024

// maxResponseSize bounds a successful response body.
const maxResponseSize = 8 << 20

// ErrNoAPIKey is returned when the client has no credential.
var ErrNoAPIKey = errors.New("aisapi: no API key configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("aisapi: %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to the registry API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from the AIS configuration.
func NewClient(cfg *config.AISConfig) *Client {
	timeout := cfg.RESTTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RESTRateLimit)
	if cfg.RESTRateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RESTBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.RESTBaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// VesselDetails looks up a vessel by identifier.
func (c *Client) VesselDetails(ctx context.Context, mmsi string) ([]models.VesselDetails, error) {
	return c.post(ctx, "details", "/vessels/details", map[string]string{"mmsi": mmsi})
}

// SearchVessels runs a free text search.
func (c *Client) SearchVessels(ctx context.Context, query string) ([]models.VesselDetails, error) {
	return c.post(ctx, "search", "/vessels/search", map[string]string{"query": query})
}

func (c *Client) post(ctx context.Context, endpoint, path string, body any) (results []models.VesselDetails, err error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	start := time.Now()
	defer func() {
		metrics.RecordUpstreamRequest(endpoint, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("aisapi: rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("aisapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("aisapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aisapi: %s request failed: %w", endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("aisapi: close response: %w", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)) //nolint:errcheck // best effort diagnostics
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("aisapi: read %s response: %w", endpoint, err)
	}
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("aisapi: decode %s response: %w", endpoint, err)
	}

	results = make([]models.VesselDetails, 0, len(records))
	for i := range records {
		results = append(results, records[i].toDetails())
	}
	return results, nil
}
