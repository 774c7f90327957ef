// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/fleetwatch/internal/ais"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

// Error codes carried in the "error" field of error envelopes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
)

// ErrorResponse is the {error, message} envelope returned by every failing
// marine endpoint.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SearchErrorResponse keeps "results" present on search failures so a
// client can never mistake a failure for an empty result set.
type SearchErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Results []interface{} `json:"results"`
}

// statusForError maps query surface errors onto HTTP statuses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ais.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, ais.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ais.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, CodeServiceUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondServiceError writes the envelope for err. Internal errors get a
// generic message; the detail only goes to the log.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	resp := ErrorResponse{Error: code, Message: err.Error()}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		resp.Message = apiErr.Message
		resp.Details = apiErr.Details
	}

	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
		resp.Message = "Internal server error"
	}
	respondJSON(w, status, resp)
}

// respondError writes a plain {error, message} envelope.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}
