// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
	"github.com/tomtom215/weam/internal/models"
	"github.com/tomtom215/weam/internal/validation"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Login checks the credentials and sets the access and refresh cookies.
// The tokens never appear in the body.
//
// Method: POST
// Path: /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}

	ip := clientIP(r)
	user, err := h.db.GetUserByLogin(r.Context(), req.Login)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		respondDBError(w, r, err)
		return
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if !auth.CheckPassword(hash, req.Password) || user == nil {
		reason := "bad password"
		if user == nil {
			reason = "unknown login"
		}
		h.authLog.LoginFailed(req.Login, ip, reason)
		metrics.RecordAuthEvent("login", false)
		writeError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	if !h.issueSession(w, r, user) {
		return
	}
	h.authLog.LoginSucceeded(user.ID, user.Login, ip)
	metrics.RecordAuthEvent("login", true)
	writeJSON(w, http.StatusOK, models.UserResponse{User: user})
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	access, accessExp, err := h.tokens.SignAccessToken(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to sign access token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	refresh, claims, err := h.tokens.SignRefreshToken(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to sign refresh token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	h.cookies.SetSession(w, access, accessExp, refresh, claims.ExpiresAt.Time)
	return true
}

// Refresh exchanges a valid refresh cookie for a new access cookie. Any
// failure clears both cookies so the client falls back to the login page.
//
// Method: POST
// Path: /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	reject := func(reason string) {
		h.cookies.Clear(w)
		h.authLog.RefreshRejected(ip, reason)
		metrics.RecordAuthEvent("refresh", false)
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
	}

	token := h.cookies.Read(r, h.cookies.RefreshName())
	if token == "" {
		reject("missing refresh token")
		return
	}
	claims, err := h.tokens.VerifyRefresh(token)
	if err != nil {
		reject(err.Error())
		return
	}

	revoked, err := h.revocations.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Revocation lookup failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if revoked {
		reject(auth.ErrTokenRevoked.Error())
		return
	}

	user, err := h.db.GetUser(r.Context(), claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		reject("user no longer exists")
		return
	}
	if err != nil {
		respondDBError(w, r, err)
		return
	}

	access, exp, err := h.tokens.SignAccessToken(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to sign access token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.cookies.SetAccess(w, access, exp)
	h.authLog.Refreshed(user.ID, ip)
	metrics.RecordAuthEvent("refresh", true)
	writeJSON(w, http.StatusOK, okBody)
}

// Logout revokes the refresh token, if one is presented and still valid,
// and clears both cookies. It always succeeds.
//
// Method: POST
// Path: /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.cookies.Read(r, h.cookies.RefreshName()); token != "" {
		if claims, err := h.tokens.VerifyRefresh(token); err == nil {
			exp := time.Now().Add(h.tokens.RefreshTTL())
			if claims.ExpiresAt != nil {
				exp = claims.ExpiresAt.Time
			}
			if err := h.revocations.Revoke(r.Context(), claims.ID, exp); err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to revoke refresh token")
			}
			h.authLog.LoggedOut(claims.UserID, clientIP(r))
		}
	}
	metrics.RecordAuthEvent("logout", true)
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, okBody)
}

// Me returns the signed-in user, or {"user":null} for anonymous callers.
//
// Method: GET
// Path: /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := auth.UserFromContext(r.Context())
	if p == nil {
		writeJSON(w, http.StatusOK, models.UserResponse{})
		return
	}
	user, err := h.db.GetUser(r.Context(), p.ID)
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusOK, models.UserResponse{})
		return
	}
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UserResponse{User: user})
}
