// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package config loads Fleetwatch configuration.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, then config.yaml / config.yml)
//  3. Environment variables
//
// A missing AISSTREAM_API_KEY is a supported mode: the feed stays closed
// and the query surface serves sample data.
//
// Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	AIS      AISConfig      `koanf:"ais"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	NATS     NATSConfig     `koanf:"nats"`
	WAL      WALConfig      `koanf:"wal"`
}

// AISConfig holds feed and upstream REST settings.
type AISConfig struct {
	// APIKey is the feed credential. Empty means mock mode.
	APIKey string `koanf:"api_key"`

	StreamURL   string        `koanf:"stream_url"`
	RESTBaseURL string        `koanf:"rest_base_url"`
	RESTTimeout time.Duration `koanf:"rest_timeout"`

	// RESTRateLimit is requests per second against the upstream REST API.
	RESTRateLimit float64 `koanf:"rest_rate_limit"`
	RESTBurst     int     `koanf:"rest_burst"`

	ReconnectDelay  time.Duration `koanf:"reconnect_delay"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ReaperInterval  time.Duration `koanf:"reaper_interval"`
	PersistQueue    int           `koanf:"persist_queue"`
	DetailsCacheTTL time.Duration `koanf:"details_cache_ttl"`

	// Demo fallback for identifiers with no live coverage yet.
	DemoMMSIs     []string `koanf:"demo_mmsis"`
	DemoLatitude  float64  `koanf:"demo_latitude"`
	DemoLongitude float64  `koanf:"demo_longitude"`
}

// Configured reports whether a feed credential is present.
func (a AISConfig) Configured() bool {
	return a.APIKey != ""
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = NumCPU
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NATSConfig controls publication of position events.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	Subject       string        `koanf:"subject"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	// JetStream publishes through an operator-provisioned stream with
	// message id deduplication instead of core NATS.
	JetStream bool `koanf:"jetstream"`
}

// WALConfig controls the BadgerDB spool for position writes that failed
// against the vessel store.
type WALConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	MaxRetries    int           `koanf:"max_retries"`
	EntryTTL      time.Duration `koanf:"entry_ttl"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
