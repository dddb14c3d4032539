// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/models"
)

const healthTimeout = 2 * time.Second

// Health reports liveness and database reachability. It needs no session
// so container health checks can call it.
//
// Method: GET
// Path: /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := models.HealthResponse{Status: "ok", DB: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if err := h.db.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: database unreachable")
		resp.Status = "error"
		resp.DB = "error"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Organizations lists the distinct contractors for autocomplete.
//
// Method: GET
// Path: /api/organizations
func (h *Handler) Organizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.db.ListOrganizations(r.Context())
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

// Responsible lists the people a transaction can be assigned to.
//
// Method: GET
// Path: /api/responsible
func (h *Handler) Responsible(w http.ResponseWriter, r *http.Request) {
	people, err := h.db.ListResponsible(r.Context())
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}
