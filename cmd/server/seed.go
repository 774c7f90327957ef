// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert or update fleet vessels from a YAML fixture",
	Long: `seed reads a YAML file of vessels and upserts them into the vessel store.
The ingestion pipeline only updates positions of existing vessels, so the
fleet has to be seeded before live positions can be persisted.

  vessels:
    - name: Sea Breeze
      mmsi: "319000001"
      type: Motor Yacht
      latitude: 43.70
      longitude: 7.42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vessels, err := loadSeedFile(seedFile)
		if err != nil {
			return err
		}

		db, err := database.New(&cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logging.Error().Err(cerr).Msg("Error closing database")
			}
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		n, err := seedVessels(ctx, db, vessels)
		if err != nil {
			return err
		}
		logging.Info().Int("vessels", n).Str("file", seedFile).Msg("Fleet seeded")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to the vessel fixture YAML file")
	_ = seedCmd.MarkFlagRequired("file")
}

type seedDocument struct {
	Vessels []seedVessel `yaml:"vessels"`
}

type seedVessel struct {
	Name      string   `yaml:"name" json:"name" validate:"required"`
	MMSI      string   `yaml:"mmsi" json:"mmsi" validate:"omitempty,mmsi"`
	Type      string   `yaml:"type" json:"type"`
	Latitude  *float64 `yaml:"latitude" json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `yaml:"longitude" json:"longitude" validate:"omitempty,longitude"`
	Heading   *float64 `yaml:"heading" json:"heading" validate:"omitempty,gte=0,lt=360"`
	Speed     *float64 `yaml:"speed" json:"speed" validate:"omitempty,gte=0"`
}

// VesselUpserter is the store operation the seed command needs.
type VesselUpserter interface {
	UpsertVessel(ctx context.Context, v *models.Vessel) (int64, error)
}

// loadSeedFile parses and validates a vessel fixture.
func loadSeedFile(path string) ([]models.Vessel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]models.Vessel, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(doc.Vessels) == 0 {
		return nil, fmt.Errorf("seed file lists no vessels")
	}

	vessels := make([]models.Vessel, 0, len(doc.Vessels))
	for i := range doc.Vessels {
		sv := &doc.Vessels[i]
		if verr := validation.ValidateStruct(sv); verr != nil {
			return nil, fmt.Errorf("vessel %d (%q): %w", i+1, sv.Name, verr)
		}
		vessels = append(vessels, models.Vessel{
			Name:      sv.Name,
			MMSI:      sv.MMSI,
			Type:      sv.Type,
			Latitude:  sv.Latitude,
			Longitude: sv.Longitude,
			Heading:   sv.Heading,
			Speed:     sv.Speed,
		})
	}
	return vessels, nil
}

// seedVessels upserts every vessel and returns how many were written.
func seedVessels(ctx context.Context, store VesselUpserter, vessels []models.Vessel) (int, error) {
	for i := range vessels {
		id, err := store.UpsertVessel(ctx, &vessels[i])
		if err != nil {
			return i, fmt.Errorf("seed vessel %q: %w", vessels[i].Name, err)
		}
		logging.Debug().Int64("id", id).Str("name", vessels[i].Name).Str("mmsi", vessels[i].MMSI).Msg("Vessel seeded")
	}
	return len(vessels), nil
}
