// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/logging"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// ListUsers returns every user. Admin only.
//
// Method: GET
// Path: /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser returns one user to that user or to an admin.
//
// Method: GET
// Path: /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := auth.UserFromContext(r.Context())
	if !p.IsAdmin() && p.ID != id {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	user, err := h.db.GetUser(r.Context(), id)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUser is disabled. Accounts are created with weam-admin.
//
// Method: POST
// Path: /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET")
	writeError(w, http.StatusMethodNotAllowed, "User creation is disabled")
}

// UpdateUser patches a user. Users may change their own nickname and
// password; admins may change anything on anyone. Other keys are dropped.
//
// Method: PUT
// Path: /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := auth.UserFromContext(r.Context())
	if !p.IsAdmin() && p.ID != id {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	allowed := h.policy.Apply(p.Role, authz.ResourceUsers, patch)

	values, err := h.normalizePatch(userFieldKinds, allowed)
	if err == nil {
		err = requireText(values, "login")
	}
	if err != nil {
		respondInputError(w, r, err)
		return
	}

	if raw, ok := allowed["password"]; ok {
		password, _ := raw.(string)
		if password == "" || len(password) > maxPasswordBytes {
			writeError(w, http.StatusBadRequest, "Password must be between 1 and 72 bytes")
			return
		}
		hash, err := auth.HashPassword(password, h.cfg.Security.BcryptCost)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to hash password")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		values["password_hash"] = hash
	}

	user, err := h.db.UpdateUser(r.Context(), id, values)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user. Admin only; admins cannot delete themselves.
//
// Method: DELETE
// Path: /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if p := auth.UserFromContext(r.Context()); p.ID == id {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody)
}
