// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/models"
	"github.com/tomtom215/weam/internal/validation"
)

// writeJSON marshals v before touching the response so a marshal failure
// can still become a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

var okBody = models.OKResponse{OK: true}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// respondDBError maps a repository error to its HTTP status. Anything
// unclassified is logged with the request context and answered with a
// generic message.
func respondDBError(w http.ResponseWriter, r *http.Request, err error) {
	ce := database.ClassifyError(err)
	if ce.Status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("kind", ce.Kind).
			Str("path", r.URL.Path).
			Msg("Database error")
	}
	writeError(w, ce.Status, ce.Message)
}

// respondValidation writes the first field message of a failed validation.
func respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	writeError(w, http.StatusBadRequest, verr.Message())
}

// decodeJSON reads the request body into dst. On failure it writes the
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// decodePatch reads a JSON object body. Keys are kept as sent; the field
// policy and normalizePatch decide what survives.
func decodePatch(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var patch map[string]any
	if !decodeJSON(w, r, &patch) {
		return nil, false
	}
	if patch == nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return patch, true
}

// badRequestError carries a client-facing 400 message out of input
// normalization.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// respondInputError writes a badRequestError as 400 and anything else as a
// database error.
func respondInputError(w http.ResponseWriter, r *http.Request, err error) {
	var bad *badRequestError
	if errors.As(err, &bad) {
		writeError(w, http.StatusBadRequest, bad.msg)
		return
	}
	respondDBError(w, r, err)
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// rewritten when the request came through a proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}
