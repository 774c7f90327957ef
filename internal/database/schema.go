// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"fmt"
)

// mmsi is not unique: more than one fleet record may carry
// the same station identifier.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS vessels_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS vessels (
		id BIGINT PRIMARY KEY DEFAULT nextval('vessels_id_seq'),
		name VARCHAR NOT NULL,
		mmsi VARCHAR,
		vessel_type VARCHAR,
		latitude DOUBLE,
		longitude DOUBLE,
		heading DOUBLE,
		speed DOUBLE,
		last_position_update TIMESTAMP,
		created_at TIMESTAMP DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vessels_mmsi ON vessels (mmsi)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
