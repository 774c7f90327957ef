// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package ais

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// MessageTypePositionReport is the only feed message type the pipeline
// consumes.
const MessageTypePositionReport = "PositionReport"

// Frame is a decoded feed frame. Raw keeps the full payload so the
// position report variant can be decoded once the shape is known.
type Frame struct {
	MessageType string
	Raw         []byte
}

type frameEnvelope struct {
	MessageType string `json:"MessageType"`
}

// DecodeFrame parses the envelope of a feed frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ErrUndecodableFrame
	}
	var env frameEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodableFrame, err)
	}
	return &Frame{MessageType: env.MessageType, Raw: raw}, nil
}

// IsPositionReport reports whether the frame declares a position report.
func (f *Frame) IsPositionReport() bool {
	return f.MessageType == MessageTypePositionReport
}

// PositionReport is a position report in one of the shapes the feed has
// used. The set of implementations is closed; Normalizer switches over it.
type PositionReport interface {
	Identifier() string
	Fix() Fix
	ReportedName() string

	positionReport()
}

// Fix is the kinematic part of a position report.
type Fix struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	Heading   float64
}

// NestedPositionReport is the current feed shape: the report lives under
// Message.PositionReport and the ship name under MetaData.
type NestedPositionReport struct {
	Message struct {
		PositionReport *nestedReportBody `json:"PositionReport"`
	} `json:"Message"`
	MetaData struct {
		ShipName string `json:"ShipName"`
	} `json:"MetaData"`
}

type nestedReportBody struct {
	UserID      *models.FlexString `json:"UserID"`
	Latitude    models.FlexFloat   `json:"Latitude"`
	Longitude   models.FlexFloat   `json:"Longitude"`
	Sog         models.FlexFloat   `json:"Sog"`
	TrueHeading models.FlexFloat   `json:"TrueHeading"`
}

func (r *NestedPositionReport) Identifier() string {
	if r.Message.PositionReport == nil || r.Message.PositionReport.UserID == nil {
		return ""
	}
	return strings.TrimSpace(string(*r.Message.PositionReport.UserID))
}

func (r *NestedPositionReport) Fix() Fix {
	b := r.Message.PositionReport
	if b == nil {
		return Fix{}
	}
	return Fix{
		Latitude:  float64(b.Latitude),
		Longitude: float64(b.Longitude),
		Speed:     float64(b.Sog),
		Heading:   float64(b.TrueHeading),
	}
}

func (r *NestedPositionReport) ReportedName() string {
	return strings.TrimSpace(r.MetaData.ShipName)
}

func (*NestedPositionReport) positionReport() {}

// FlatPositionReport is the older feed shape with every field at the top
// level.
type FlatPositionReport struct {
	MMSI      *models.FlexString `json:"MMSI"`
	Latitude  models.FlexFloat   `json:"Latitude"`
	Longitude models.FlexFloat   `json:"Longitude"`
	Sog       models.FlexFloat   `json:"Sog"`
	Heading   models.FlexFloat   `json:"Heading"`
	ShipName  string             `json:"ShipName"`
}

func (r *FlatPositionReport) Identifier() string {
	if r.MMSI == nil {
		return ""
	}
	return strings.TrimSpace(string(*r.MMSI))
}

func (r *FlatPositionReport) Fix() Fix {
	return Fix{
		Latitude:  float64(r.Latitude),
		Longitude: float64(r.Longitude),
		Speed:     float64(r.Sog),
		Heading:   float64(r.Heading),
	}
}

func (r *FlatPositionReport) ReportedName() string {
	return strings.TrimSpace(r.ShipName)
}

func (*FlatPositionReport) positionReport() {}

type variantProbe struct {
	Message struct {
		PositionReport json.RawMessage `json:"PositionReport"`
	} `json:"Message"`
}

// PositionReport decodes the frame into its variant. The nested shape is
// selected when Message.PositionReport is present.
func (f *Frame) PositionReport() (PositionReport, error) {
	var probe variantProbe
	if err := json.Unmarshal(f.Raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodableFrame, err)
	}

	var report PositionReport
	if len(probe.Message.PositionReport) > 0 && !bytes.Equal(probe.Message.PositionReport, []byte("null")) {
		report = &NestedPositionReport{}
	} else {
		report = &FlatPositionReport{}
	}
	if err := json.Unmarshal(f.Raw, report); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodableFrame, err)
	}
	if report.Identifier() == "" {
		return nil, ErrMissingIdentifier
	}
	return report, nil
}
