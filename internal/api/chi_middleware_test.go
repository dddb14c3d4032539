// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/weam/internal/config"
)

func TestOriginGuard(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	c := env.anonymous(t)

	tests := []struct {
		name   string
		origin string
		status int
	}{
		{"no origin", "", http.StatusOK},
		{"allowed origin", allowedOrigin, http.StatusOK},
		{"allowed origin with slash", allowedOrigin + "/", http.StatusOK},
		{"same host", env.srv.URL, http.StatusOK},
		{"foreign origin", "https://evil.example.com", http.StatusForbidden},
		{"garbage origin", "null", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.origin != "" {
				headers["Origin"] = tt.origin
			}
			resp, body := env.doWithHeaders(t, c, http.MethodGet, "/api/health", nil, headers)
			expectStatus(t, resp, body, tt.status)
			if tt.status == http.StatusForbidden {
				if msg := errorMessage(t, body); msg != "Origin not allowed by CORS" {
					t.Errorf("error = %q", msg)
				}
			}
		})
	}
}

func TestCORS_AllowsCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.doWithHeaders(t, env.anonymous(t), http.MethodOptions, "/api/login", nil, map[string]string{
		"Origin":                         allowedOrigin,
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Content-Type",
	})
	if resp.StatusCode >= 300 {
		t.Fatalf("preflight status = %d (body %s)", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != allowedOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.do(t, env.anonymous(t), http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, body, http.StatusOK)

	csp := resp.Header.Get("Content-Security-Policy")
	if !strings.Contains(csp, "connect-src 'self' "+allowedOrigin) {
		t.Errorf("CSP connect-src missing client origin: %q", csp)
	}
	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Cache-Control":          "no-store",
	} {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if resp.Header.Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent outside production over plain HTTP")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not echoed")
	}
}

func TestSecurityHeaders_HSTSInProduction(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{ForceHSTS: true})
	rec := httptest.NewRecorder()
	m.SecurityHeaders()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing in production")
	}
}

func TestRateLimitLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Security.LoginRateLimitMax = 2
		cfg.Security.RateLimitWindow = time.Hour
	})
	c := env.anonymous(t)
	creds := map[string]string{"login": "alice", "password": "wrong"}

	for i := 0; i < 2; i++ {
		resp, body := env.do(t, c, http.MethodPost, "/api/login", creds)
		expectStatus(t, resp, body, http.StatusUnauthorized)
	}
	resp, body := env.do(t, c, http.MethodPost, "/api/login", creds)
	expectStatus(t, resp, body, http.StatusTooManyRequests)
	if msg := errorMessage(t, body); !strings.HasPrefix(msg, "Too many requests") {
		t.Errorf("error = %q", msg)
	}

	// The general limiter is separate.
	resp, body = env.do(t, c, http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, body, http.StatusOK)
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true, RateLimitRequests: 1, RateLimitWindow: time.Hour})
	h := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Limits.MaxBodyBytes = 64
	})

	resp, body := env.do(t, env.anonymous(t), http.MethodPost, "/api/login",
		map[string]string{"login": strings.Repeat("a", 200), "password": "x"})
	expectStatus(t, resp, body, http.StatusRequestEntityTooLarge)
}

func TestUnknownAPIRoute(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.do(t, env.anonymous(t), http.MethodGet, "/api/nope", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	resp, body = env.do(t, env.login(t, "admin", "admin-pass"), http.MethodPatch, "/api/projects/1", map[string]string{})
	expectStatus(t, resp, body, http.StatusMethodNotAllowed)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.do(t, env.anonymous(t), http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, body, http.StatusOK)
	got := decode[map[string]string](t, body)
	if got["status"] != "ok" || got["db"] != "ok" || got["time"] == "" {
		t.Errorf("health = %v", got)
	}

	_ = env.db.Close()
	resp, body = env.do(t, env.anonymous(t), http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, body, http.StatusServiceUnavailable)
}

func TestSPAFallback(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	dir := env.cfg.Server.StaticDir
	writeFile(t, filepath.Join(dir, "index.html"), "<!doctype html><div id=root></div>")
	writeFile(t, filepath.Join(dir, "assets", "app-3f2a.js"), "console.log(1)")
	writeFile(t, filepath.Join(dir, "favicon.svg"), "<svg/>")
	c := env.anonymous(t)

	tests := []struct {
		path         string
		wantBody     string
		cacheControl string
	}{
		{"/", "<div id=root>", "no-cache"},
		{"/index.html", "<div id=root>", "no-cache"},
		{"/board", "<div id=root>", "no-cache"},
		{"/projects/12/gantt", "<div id=root>", "no-cache"},
		{"/assets", "<div id=root>", "no-cache"},
		{"/assets/app-3f2a.js", "console.log", "public, max-age=31536000, immutable"},
		{"/favicon.svg", "<svg/>", "public, max-age=3600"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := env.do(t, c, http.MethodGet, tt.path, nil)
			expectStatus(t, resp, body, http.StatusOK)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", body, tt.wantBody)
			}
			if got := resp.Header.Get("Cache-Control"); got != tt.cacheControl {
				t.Errorf("Cache-Control = %q, want %q", got, tt.cacheControl)
			}
		})
	}
}

func TestSPAFallback_NoBuild(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.do(t, env.anonymous(t), http.MethodGet, "/board", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	c := env.anonymous(t)

	env.do(t, c, http.MethodGet, "/api/health", nil)
	resp, body := env.do(t, c, http.MethodGet, "/metrics", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "weam_http_requests_total") {
		t.Error("metrics output lacks weam_http_requests_total")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
