// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package aisapi

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// vesselRecord is one registry entry. Every field is optional and the
// registry is inconsistent about numeric versus string encodings.
type vesselRecord struct {
	MMSI        models.FlexString `json:"mmsi"`
	Name        models.FlexString `json:"name"`
	ShipName    models.FlexString `json:"shipName"`
	IMO         models.FlexString `json:"imo"`
	CallSign    models.FlexString `json:"callSign"`
	Type        models.FlexString `json:"type"`
	ShipType    models.FlexString `json:"shipType"`
	Flag        models.FlexString `json:"flag"`
	Length      models.FlexFloat  `json:"length"`
	Width       models.FlexFloat  `json:"width"`
	Destination models.FlexString `json:"destination"`
	ETA         models.FlexString `json:"eta"`
	Status      models.FlexString `json:"status"`
}

func (r *vesselRecord) toDetails() models.VesselDetails {
	name := clean(r.Name)
	if name == "" {
		name = clean(r.ShipName)
	}
	kind := clean(r.Type)
	if kind == "" {
		kind = clean(r.ShipType)
	}
	return models.VesselDetails{
		MMSI:        clean(r.MMSI),
		Name:        name,
		IMO:         clean(r.IMO),
		CallSign:    clean(r.CallSign),
		Type:        kind,
		Flag:        clean(r.Flag),
		Length:      float64(r.Length),
		Width:       float64(r.Width),
		Destination: clean(r.Destination),
		ETA:         clean(r.ETA),
		Status:      clean(r.Status),
	}
}

func clean(s models.FlexString) string {
	return strings.TrimSpace(string(s))
}

// decodeRecords accepts a bare array, a single object, or an object
// wrapping the array under "vessels" or "data". Empty bodies and null
// decode to no records.
func decodeRecords(raw []byte) ([]vesselRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var records []vesselRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var wrapped struct {
		Vessels []vesselRecord `json:"vessels"`
		Data    []vesselRecord `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	switch {
	case len(wrapped.Vessels) > 0:
		return wrapped.Vessels, nil
	case len(wrapped.Data) > 0:
		return wrapped.Data, nil
	}

	var single vesselRecord
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single.MMSI == "" && single.Name == "" && single.ShipName == "" {
		return nil, nil
	}
	return []vesselRecord{single}, nil
}
