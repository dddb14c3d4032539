// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/models"
)

const (
	tokenIssuer = "weam"

	// RefreshSubject is the sub claim of every refresh token.
	RefreshSubject = "refresh"

	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers malformed, expired and badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType means a valid token was presented in the other
	// token's place.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTokenRevoked means the refresh token was logged out.
	ErrTokenRevoked = errors.New("token revoked")
)

// AccessClaims are carried by access tokens.
type AccessClaims struct {
	UserID int64  `json:"uid"`
	Login  string `json:"login"`
	Role   string `json:"role"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens.
type RefreshClaims struct {
	UserID int64  `json:"uid"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access and refresh tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager creates a TokenManager from the security configuration.
// The refresh secret falls back to the JWT secret.
func NewTokenManager(cfg *config.SecurityConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.JWTSecret
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return &TokenManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}, nil
}

// AccessTTL returns the access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// SignAccessToken issues an access token for u and returns its expiry.
func (m *TokenManager) SignAccessToken(u *models.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.accessTTL)
	claims := &AccessClaims{
		UserID: u.ID,
		Login:  u.Login,
		Role:   u.Role,
		Type:   typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, exp, nil
}

// SignRefreshToken issues a refresh token for u.
func (m *TokenManager) SignRefreshToken(u *models.User) (string, *RefreshClaims, error) {
	now := m.now()
	claims := &RefreshClaims{
		UserID: u.ID,
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   RefreshSubject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, claims, nil
}

// VerifyAccess parses an access token. Refresh tokens are rejected with
// ErrWrongTokenType.
func (m *TokenManager) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(token, claims, m.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == RefreshSubject || claims.Type != typeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}

// VerifyRefresh parses a refresh token. Both the sub and typ markers must
// be present.
func (m *TokenManager) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(token, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Subject != RefreshSubject || claims.Type != typeRefresh {
		return nil, ErrWrongTokenType
	}
	if claims.UserID <= 0 || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing user id or jti", ErrInvalidToken)
	}
	return claims, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}
