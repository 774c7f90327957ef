// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fleetwatch/config.yaml",
	"/etc/fleetwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultDemoMMSIs are the sample fleet identifiers known to the vessel store.
var DefaultDemoMMSIs = []string{"319904000", "366998410", "366759530", "367671640"}

func defaultConfig() *Config {
	return &Config{
		AIS: AISConfig{
			APIKey:          "",
			StreamURL:       "wss://stream.aisstream.io/v0/stream",
			RESTBaseURL:     "https://api.aisstream.io/v0",
			RESTTimeout:     10 * time.Second,
			RESTRateLimit:   2,
			RESTBurst:       4,
			ReconnectDelay:  10 * time.Second,
			IdleTimeout:     5 * time.Minute,
			ReaperInterval:  60 * time.Second,
			PersistQueue:    1024,
			DetailsCacheTTL: 5 * time.Minute,
			DemoMMSIs:       append([]string(nil), DefaultDemoMMSIs...),
			DemoLatitude:    26.1,
			DemoLongitude:   -80.1,
		},
		Database: DatabaseConfig{
			Path:      "/data/fleetwatch.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			Subject:       "fleet.vessel.position",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		WAL: WALConfig{
			Enabled:       false,
			Path:          "/data/wal",
			RetryInterval: 30 * time.Second,
			MaxRetries:    10,
			EntryTTL:      24 * time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration in three layers: defaults, then an
// optional YAML file, then environment variables (highest priority).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns "" when no config file exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"ais.demo_mmsis",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak
// into configuration.
var envMappings = map[string]string{
	// AIS feed
	"aisstream_api_key":     "ais.api_key",
	"ais_stream_url":        "ais.stream_url",
	"ais_rest_base_url":     "ais.rest_base_url",
	"ais_rest_timeout":      "ais.rest_timeout",
	"ais_rest_rate_limit":   "ais.rest_rate_limit",
	"ais_rest_burst":        "ais.rest_burst",
	"ais_reconnect_delay":   "ais.reconnect_delay",
	"ais_idle_timeout":      "ais.idle_timeout",
	"ais_reaper_interval":   "ais.reaper_interval",
	"ais_persist_queue":     "ais.persist_queue",
	"ais_details_cache_ttl": "ais.details_cache_ttl",
	"ais_demo_mmsis":        "ais.demo_mmsis",
	"ais_demo_latitude":     "ais.demo_latitude",
	"ais_demo_longitude":    "ais.demo_longitude",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_subject":        "nats.subject",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",
	"nats_jetstream":      "nats.jetstream",

	// Write spool
	"wal_enabled":        "wal.enabled",
	"wal_path":           "wal.path",
	"wal_retry_interval": "wal.retry_interval",
	"wal_max_retries":    "wal.max_retries",
	"wal_entry_ttl":      "wal.entry_ttl",
}

// envTransformFunc maps an environment variable name to its koanf path,
// or "" to skip it.
//
//   - AISSTREAM_API_KEY -> ais.api_key
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
