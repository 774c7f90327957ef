// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateAIS,
		c.validateDatabase,
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
		c.validateNATS,
		c.validateWAL,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAIS() error {
	if err := validateURL(c.AIS.StreamURL, "AIS_STREAM_URL", "ws", "wss"); err != nil {
		return err
	}
	if err := validateURL(c.AIS.RESTBaseURL, "AIS_REST_BASE_URL", "http", "https"); err != nil {
		return err
	}
	if c.AIS.RESTTimeout <= 0 {
		return fmt.Errorf("AIS_REST_TIMEOUT must be positive")
	}
	if c.AIS.RESTRateLimit <= 0 || c.AIS.RESTBurst < 1 {
		return fmt.Errorf("AIS_REST_RATE_LIMIT must be positive and AIS_REST_BURST at least 1")
	}
	if c.AIS.ReconnectDelay <= 0 {
		return fmt.Errorf("AIS_RECONNECT_DELAY must be positive")
	}
	if c.AIS.IdleTimeout <= 0 || c.AIS.ReaperInterval <= 0 {
		return fmt.Errorf("AIS_IDLE_TIMEOUT and AIS_REAPER_INTERVAL must be positive")
	}
	if c.AIS.PersistQueue < 1 {
		return fmt.Errorf("AIS_PERSIST_QUEUE must be at least 1")
	}
	if c.AIS.DemoLatitude < -90 || c.AIS.DemoLatitude > 90 {
		return fmt.Errorf("AIS_DEMO_LATITUDE must be between -90 and 90")
	}
	if c.AIS.DemoLongitude < -180 || c.AIS.DemoLongitude > 180 {
		return fmt.Errorf("AIS_DEMO_LONGITUDE must be between -180 and 180")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got: %s", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateURL(c.NATS.URL, "NATS_URL", "nats", "tls"); err != nil {
		return err
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateWAL() error {
	if !c.WAL.Enabled {
		return nil
	}
	if c.WAL.Path == "" {
		return fmt.Errorf("WAL_PATH is required when WAL_ENABLED=true")
	}
	if c.WAL.RetryInterval <= 0 {
		return fmt.Errorf("WAL_RETRY_INTERVAL must be positive")
	}
	if c.WAL.MaxRetries < 1 {
		return fmt.Errorf("WAL_MAX_RETRIES must be at least 1")
	}
	return nil
}

// validateURL checks scheme and host of a base URL.
func validateURL(rawURL, fieldName string, schemes ...string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	schemeOK := false
	for _, s := range schemes {
		if parsed.Scheme == s {
			schemeOK = true
			break
		}
	}
	if !schemeOK {
		return fmt.Errorf("%s scheme must be one of %s, got: %q", fieldName, strings.Join(schemes, ", "), parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsed.RawQuery)
	}
	return nil
}
