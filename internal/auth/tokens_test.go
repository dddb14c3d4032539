// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/models"
)

const (
	testAccessSecret  = "access-secret-that-is-at-least-32-characters"
	testRefreshSecret = "refresh-secret-that-is-at-least-32-characters"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:       testAccessSecret,
		RefreshSecret:   testRefreshSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

var testUser = &models.User{ID: 42, Login: "alice", Role: models.RoleAdmin}

func TestNewTokenManager_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenManager(&config.SecurityConfig{AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewTokenManager(&config.SecurityConfig{JWTSecret: testAccessSecret, RefreshTokenTTL: time.Hour}); err == nil {
		t.Error("expected error for zero access TTL")
	}

	cfg := testSecurityConfig()
	cfg.RefreshSecret = ""
	m, err := NewTokenManager(cfg)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if string(m.refreshSecret) != testAccessSecret {
		t.Error("refresh secret should fall back to the JWT secret")
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	token, exp, err := m.SignAccessToken(testUser)
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	if d := time.Until(exp); d < 14*time.Minute || d > 15*time.Minute {
		t.Errorf("expiry in %v, want about 15m", d)
	}

	claims, err := m.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != 42 || claims.Login != "alice" || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Subject != "42" {
		t.Errorf("sub = %q, want 42", claims.Subject)
	}
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	token, issued, err := m.SignRefreshToken(testUser)
	if err != nil {
		t.Fatalf("SignRefreshToken: %v", err)
	}
	if issued.Subject != RefreshSubject || issued.ID == "" {
		t.Errorf("issued claims = %+v", issued)
	}

	claims, err := m.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.UserID != 42 || claims.ID != issued.ID {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokens_CannotBeSwapped(t *testing.T) {
	t.Parallel()

	// Same secret for both so only the markers keep the tokens apart.
	cfg := testSecurityConfig()
	cfg.RefreshSecret = cfg.JWTSecret
	m, err := NewTokenManager(cfg)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	access, _, _ := m.SignAccessToken(testUser)
	refresh, _, _ := m.SignRefreshToken(testUser)

	if _, err := m.VerifyRefresh(access); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("VerifyRefresh(access) = %v, want ErrWrongTokenType", err)
	}
	if _, err := m.VerifyAccess(refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("VerifyAccess(refresh) = %v, want ErrWrongTokenType", err)
	}
}

func TestVerify_Rejections(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)

	expired := newTestTokenManager(t)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	oldToken, _, _ := expired.SignAccessToken(testUser)

	other, err := NewTokenManager(&config.SecurityConfig{
		JWTSecret:       strings.Repeat("z", 40),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	foreign, _, _ := other.SignAccessToken(testUser)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &AccessClaims{UserID: 1, Type: typeAccess})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, &AccessClaims{
		UserID: 1, Type: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	hs512Token, _ := hs512.SignedString([]byte(testAccessSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"expired", oldToken},
		{"wrong secret", foreign},
		{"alg none", noneToken},
		{"alg hs512", hs512Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.VerifyAccess(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("VerifyAccess = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRefreshToken_WrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestTokenManager(t)
	// A refresh-shaped token signed with the access secret.
	claims := &RefreshClaims{
		UserID: 1,
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   RefreshSubject,
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))

	if _, err := m.VerifyRefresh(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyRefresh = %v, want ErrInvalidToken", err)
	}
}

func TestPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if CheckPassword("", "anything") {
		t.Error("CheckPassword accepted an empty hash")
	}
	if CheckPassword("not-a-hash", "anything") {
		t.Error("CheckPassword accepted a malformed hash")
	}
}
