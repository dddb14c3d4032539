// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package api serves the WEAM HTTP surface: the chi router with its CORS,
// CSP and rate-limit middleware, the JSON route handlers for users, projects,
// transactions and the dashboard, and the SPA fallback.
package api

import (
	"time"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/logging"
)

// Handler holds the dependencies shared by every route handler.
type Handler struct {
	db          *database.DB
	cfg         *config.Config
	tokens      *auth.TokenManager
	cookies     *auth.CookieManager
	policy      *authz.FieldPolicy
	revocations auth.RevocationStore
	authLog     *logging.AuthLogger
	startTime   time.Time
}

// NewHandler creates the API handler.
//
// Dependencies:
//   - db: SQLite repositories, schema already checked
//   - cfg: limits, bcrypt cost and cookie settings
//   - tokens, cookies: session issuance and parsing
//   - policy: writable fields per role
//   - revocations: logged-out refresh token IDs
func NewHandler(
	db *database.DB,
	cfg *config.Config,
	tokens *auth.TokenManager,
	cookies *auth.CookieManager,
	policy *authz.FieldPolicy,
	revocations auth.RevocationStore,
) *Handler {
	return &Handler{
		db:          db,
		cfg:         cfg,
		tokens:      tokens,
		cookies:     cookies,
		policy:      policy,
		revocations: revocations,
		authLog:     logging.NewAuthLogger(),
		startTime:   time.Now(),
	}
}
