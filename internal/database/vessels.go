// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// PositionUpdate carries the position columns written for a vessel.
// Nil Heading or Speed leaves the stored value unchanged.
type PositionUpdate struct {
	Latitude  float64
	Longitude float64
	Heading   *float64
	Speed     *float64
	At        time.Time
}

const vesselColumns = `id, name, mmsi, vessel_type, latitude, longitude, heading, speed, last_position_update`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVessel(row rowScanner) (models.Vessel, error) {
	var (
		v                        models.Vessel
		mmsi, vesselType         sql.NullString
		lat, lon, heading, speed sql.NullFloat64
		lastUpdate               sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.Name, &mmsi, &vesselType, &lat, &lon, &heading, &speed, &lastUpdate); err != nil {
		return models.Vessel{}, err
	}
	v.MMSI = mmsi.String
	v.Type = vesselType.String
	v.Latitude = nullFloat(lat)
	v.Longitude = nullFloat(lon)
	v.Heading = nullFloat(heading)
	v.Speed = nullFloat(speed)
	if lastUpdate.Valid {
		t := lastUpdate.Time.UTC()
		v.LastPositionUpdate = &t
	}
	return v, nil
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func (db *DB) queryVessels(ctx context.Context, op, query string, args ...any) ([]models.Vessel, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery(op, time.Since(start), err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer closeQuietly(rows)

	var vessels []models.Vessel
	for rows.Next() {
		v, err := scanVessel(rows)
		if err != nil {
			metrics.RecordDBQuery(op, time.Since(start), err)
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		vessels = append(vessels, v)
	}
	err = rows.Err()
	metrics.RecordDBQuery(op, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vessels, nil
}

// ListVessels returns every fleet vessel ordered by name.
func (db *DB) ListVessels(ctx context.Context) ([]models.Vessel, error) {
	return db.queryVessels(ctx, "list_vessels",
		`SELECT `+vesselColumns+` FROM vessels ORDER BY name, id`)
}

// FindByMMSI returns all vessels carrying the station identifier.
func (db *DB) FindByMMSI(ctx context.Context, mmsi string) ([]models.Vessel, error) {
	return db.queryVessels(ctx, "find_by_mmsi",
		`SELECT `+vesselColumns+` FROM vessels WHERE mmsi = ? ORDER BY id`, mmsi)
}

// GetVessel returns the vessel with the given id or ErrVesselNotFound.
func (db *DB) GetVessel(ctx context.Context, id int64) (*models.Vessel, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+vesselColumns+` FROM vessels WHERE id = ?`, id)
	v, err := scanVessel(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get_vessel", time.Since(start), nil)
		return nil, ErrVesselNotFound
	}
	metrics.RecordDBQuery("get_vessel", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get vessel %d: %w", id, err)
	}
	return &v, nil
}

// UpdatePositionByMMSI writes the position to every vessel with the
// identifier and returns how many rows changed. Zero is not an error.
func (db *DB) UpdatePositionByMMSI(ctx context.Context, mmsi string, upd PositionUpdate) (int64, error) {
	return db.updatePosition(ctx, "update_position_mmsi", `mmsi = ?`, upd, mmsi)
}

// UpdatePositionByMMSIIfNewer is UpdatePositionByMMSI for late writes: rows
// whose stored fix is newer than upd.At are left alone and not counted.
func (db *DB) UpdatePositionByMMSIIfNewer(ctx context.Context, mmsi string, upd PositionUpdate) (int64, error) {
	if upd.At.IsZero() {
		upd.At = time.Now()
	}
	return db.updatePosition(ctx, "update_position_mmsi_if_newer",
		`mmsi = ? AND (last_position_update IS NULL OR last_position_update <= ?)`,
		upd, mmsi, upd.At.UTC())
}

// UpdatePositionByID writes the position to a single vessel.
func (db *DB) UpdatePositionByID(ctx context.Context, id int64, upd PositionUpdate) (int64, error) {
	return db.updatePosition(ctx, "update_position_id", `id = ?`, upd, id)
}

func (db *DB) updatePosition(ctx context.Context, op, where string, upd PositionUpdate, whereArgs ...any) (int64, error) {
	if upd.At.IsZero() {
		upd.At = time.Now()
	}
	query := `UPDATE vessels SET
		latitude = ?,
		longitude = ?,
		heading = COALESCE(CAST(? AS DOUBLE), heading),
		speed = COALESCE(CAST(? AS DOUBLE), speed),
		last_position_update = ?
		WHERE ` + where

	args := append([]any{upd.Latitude, upd.Longitude, floatArg(upd.Heading), floatArg(upd.Speed), upd.At.UTC()}, whereArgs...)

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery(op, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}

func floatArg(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// UpsertVessel inserts the vessel, or updates name and type of the first
// existing row with the same MMSI. Returns the vessel id.
func (db *DB) UpsertVessel(ctx context.Context, v *models.Vessel) (int64, error) {
	if v.MMSI != "" {
		existing, err := db.FindByMMSI(ctx, v.MMSI)
		if err != nil {
			return 0, err
		}
		if len(existing) > 0 {
			id := existing[0].ID
			start := time.Now()
			_, err := db.conn.ExecContext(ctx,
				`UPDATE vessels SET name = ?, vessel_type = ? WHERE id = ?`, v.Name, nullString(v.Type), id)
			metrics.RecordDBQuery("upsert_vessel", time.Since(start), err)
			if err != nil {
				return 0, fmt.Errorf("upsert vessel %s: %w", v.MMSI, err)
			}
			return id, nil
		}
	}

	start := time.Now()
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO vessels (name, mmsi, vessel_type, latitude, longitude, heading, speed)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		v.Name, nullString(v.MMSI), nullString(v.Type),
		floatArg(v.Latitude), floatArg(v.Longitude), floatArg(v.Heading), floatArg(v.Speed),
	).Scan(&id)
	metrics.RecordDBQuery("insert_vessel", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("insert vessel %q: %w", v.Name, err)
	}
	return id, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CountVessels returns the number of fleet vessels.
func (db *DB) CountVessels(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM vessels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vessels: %w", err)
	}
	return n, nil
}
