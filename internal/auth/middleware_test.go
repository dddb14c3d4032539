// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Cookie: config.CookieConfig{AccessName: "access_token", RefreshName: "refresh_token", SameSite: "Lax"},
	}
}

func TestCookieManager_SetSession(t *testing.T) {
	t.Parallel()

	cm := NewCookieManager(testConfig())
	rec := httptest.NewRecorder()
	cm.SetSession(rec, "a", time.Now().Add(time.Minute), "r", time.Now().Add(time.Hour))

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly {
			t.Errorf("cookie %s is not HttpOnly", c.Name)
		}
		if c.Path != "/" {
			t.Errorf("cookie %s path = %q", c.Name, c.Path)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("cookie %s SameSite = %v", c.Name, c.SameSite)
		}
		if c.Secure {
			t.Errorf("cookie %s should not be Secure in development", c.Name)
		}
	}
}

func TestCookieManager_SecureInProduction(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Server.Environment = "production"
	cm := NewCookieManager(cfg)
	rec := httptest.NewRecorder()
	cm.SetAccess(rec, "a", time.Now().Add(time.Minute))

	if c := rec.Result().Cookies()[0]; !c.Secure {
		t.Error("access cookie should be Secure in production")
	}
}

func TestCookieManager_ClearAndRead(t *testing.T) {
	t.Parallel()

	cm := NewCookieManager(testConfig())
	rec := httptest.NewRecorder()
	cm.Clear(rec)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("cookie %s not expired: %+v", c.Name, c)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "tok"})
	if got := cm.Read(req, "access_token"); got != "tok" {
		t.Errorf("Read = %q, want tok", got)
	}
	if got := cm.Read(req, "refresh_token"); got != "" {
		t.Errorf("Read missing = %q, want empty", got)
	}
}

func newTestMiddleware(t *testing.T) (*Middleware, *TokenManager) {
	t.Helper()
	tm := newTestTokenManager(t)
	return NewMiddleware(tm, NewCookieManager(testConfig())), tm
}

func principalEcho(w http.ResponseWriter, r *http.Request) {
	p := UserFromContext(r.Context())
	if p == nil {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(p.Login))
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	mw, tm := newTestMiddleware(t)
	access, _, _ := tm.SignAccessToken(testUser)
	refresh, _, _ := tm.SignRefreshToken(testUser)

	tests := []struct {
		name       string
		strict     bool
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"strict valid", true, access, http.StatusOK, "alice"},
		{"strict missing", true, "", http.StatusUnauthorized, ""},
		{"strict refresh token", true, refresh, http.StatusUnauthorized, ""},
		{"strict garbage", true, "garbage", http.StatusUnauthorized, ""},
		{"lenient valid", false, access, http.StatusOK, "alice"},
		{"lenient missing", false, "", http.StatusOK, "anonymous"},
		{"lenient garbage", false, "garbage", http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			mw.AuthRequired(tt.strict)(http.HandlerFunc(principalEcho)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body models.ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "Unauthorized" {
					t.Errorf("body = %s", rec.Body.String())
				}
				return
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	mw, _ := newTestMiddleware(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		principal  *Principal
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &Principal{ID: 2, Login: "bob", Role: models.RoleUser}, http.StatusForbidden},
		{"admin", &Principal{ID: 1, Login: "root", Role: models.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)
			if tt.principal != nil {
				req = req.WithContext(ContextWithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			mw.AdminOnly(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPrincipal_Owns(t *testing.T) {
	t.Parallel()

	p := &Principal{ID: 5}
	five, six := int64(5), int64(6)
	if !p.Owns(&five) || p.Owns(&six) || p.Owns(nil) {
		t.Error("Owns returned the wrong answer")
	}
	var nilP *Principal
	if nilP.Owns(&five) || nilP.IsAdmin() {
		t.Error("nil principal must own nothing")
	}
}
