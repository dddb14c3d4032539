// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"context"

	"github.com/tomtom215/weam/internal/models"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the authenticated caller as described by the access token.
type Principal struct {
	ID    int64
	Login string
	Role  string
}

// IsAdmin reports whether the caller has the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// Owns reports whether the caller is the given owner.
func (p *Principal) Owns(ownerID *int64) bool {
	return p != nil && ownerID != nil && *ownerID == p.ID
}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// UserFromContext returns the authenticated caller, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}
