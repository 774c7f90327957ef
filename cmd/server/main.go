// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package main is the Fleetwatch server.

Fleetwatch ingests AIS vessel positions from a streaming feed, keeps the
latest position per vessel in memory, writes it into the fleet's DuckDB
vessel store, and serves it over HTTP and a live WebSocket stream.

# Commands

	fleetwatch serve               run the ingestion pipeline and API
	fleetwatch seed --file f.yaml  insert or update vessels from a fixture

# Supervision

	fleetwatch
	├── data-layer
	│   ├── persistence-sink
	│   └── wal-retry-loop          (WAL_ENABLED=true)
	├── ingest-layer
	│   ├── idle-reaper
	│   ├── ais-feed                (closes the feed on shutdown)
	│   ├── websocket-hub
	│   ├── position-event-forwarder (NATS_ENABLED=true)
	│   └── event-publisher          (NATS_ENABLED=true)
	└── api-layer
	    └── http-server

# Configuration

Environment variables override the optional YAML file (CONFIG_PATH or
--config), which overrides built-in defaults:

	AISSTREAM_API_KEY=...   # empty runs in sample-data mode
	DUCKDB_PATH=/data/fleetwatch.duckdb
	HTTP_PORT=3000
	LOG_LEVEL=info
	LOG_FORMAT=json
	NATS_ENABLED=false
	WAL_ENABLED=false

SIGINT and SIGTERM cancel the root context; the supervisor drains the
HTTP server, closes the feed and stops every worker.
*/
package main

func main() {
	Execute()
}
