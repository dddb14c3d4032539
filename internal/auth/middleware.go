// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/models"
)

// Middleware guards routes with the access cookie.
type Middleware struct {
	tokens  *TokenManager
	cookies *CookieManager
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenManager, cookies *CookieManager) *Middleware {
	return &Middleware{tokens: tokens, cookies: cookies}
}

// AuthRequired resolves the principal from the access cookie. With strict
// set, a missing or invalid token ends the request with 401; otherwise the
// request continues anonymously.
func (m *Middleware) AuthRequired(strict bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := m.cookies.Read(r, m.cookies.AccessName())
			claims, err := m.tokens.VerifyAccess(token)
			if err != nil {
				if token != "" {
					logging.Ctx(r.Context()).Debug().Err(err).Msg("Access token rejected")
				}
				if strict {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			p := &Principal{ID: claims.UserID, Login: claims.Login, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// AdminOnly rejects non-admin callers with 403. Without a principal it
// answers 401.
func (m *Middleware) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := UserFromContext(r.Context())
		if p == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !p.IsAdmin() {
			logging.Ctx(r.Context()).Warn().
				Int64("user_id", p.ID).
				Str("path", r.URL.Path).
				Msg("Admin route denied")
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode error response")
	}
}
