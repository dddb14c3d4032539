// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/testinfra"
)

const (
	testSecret        = "api-test-secret-0123456789abcdefghijklmnop"
	testRefreshSecret = "api-test-refresh-0123456789abcdefghijklmno"
	allowedOrigin     = "https://app.example.com"
)

// testEnv is a full server over an in-memory database with three users:
// admin, alice and bob (both plain users).
type testEnv struct {
	srv         *httptest.Server
	db          *database.DB
	cfg         *config.Config
	tokens      *auth.TokenManager
	revocations *auth.MemoryRevocationStore

	adminID int64
	aliceID int64
	bobID   int64
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Environment: "test", StaticDir: t.TempDir()},
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			RefreshSecret:     testRefreshSecret,
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   time.Hour,
			BcryptCost:        bcrypt.MinCost,
			CORSOrigins:       []string{allowedOrigin},
			RateLimitWindow:   time.Minute,
			RateLimitMax:      10000,
			LoginRateLimitMax: 1000,
		},
		Cookie:     config.CookieConfig{AccessName: "access_token", RefreshName: "refresh_token", SameSite: "Lax"},
		Database:   *testinfra.DatabaseConfig(t),
		Revocation: config.RevocationConfig{Store: "memory"},
		Limits: config.LimitsConfig{
			MaxBodyBytes:  1 << 16,
			MaxTextLength: 255,
			MaxNoteLength: 2000,
			MaxQueryRows:  100,
		},
	}
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, fn := range mutate {
		fn(cfg)
	}

	ctx := context.Background()
	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	testinfra.ApplySchema(t, db.Conn())
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	policy, err := authz.NewFieldPolicy(0)
	if err != nil {
		t.Fatalf("NewFieldPolicy() error = %v", err)
	}
	t.Cleanup(policy.Close)
	revocations := auth.NewMemoryRevocationStore()
	cookies := auth.NewCookieManager(cfg)

	handler := NewHandler(db, cfg, tokens, cookies, policy, revocations)
	router := NewRouter(handler, auth.NewMiddleware(tokens, cookies))
	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:         srv,
		db:          db,
		cfg:         cfg,
		tokens:      tokens,
		revocations: revocations,
		adminID:     testinfra.SeedUser(t, db.Conn(), "admin", "admin-pass", "admin"),
		aliceID:     testinfra.SeedUser(t, db.Conn(), "alice", "alice-pass", "user"),
		bobID:       testinfra.SeedUser(t, db.Conn(), "bob", "bob-pass", "user"),
	}
}

// anonymous returns a client with an empty cookie jar.
func (e *testEnv) anonymous(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	return &http.Client{Jar: jar}
}

// login returns a client holding the session cookies of login.
func (e *testEnv) login(t *testing.T, login, password string) *http.Client {
	t.Helper()
	c := e.anonymous(t)
	resp, body := e.do(t, c, http.MethodPost, "/api/login", map[string]string{"login": login, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", login, resp.StatusCode, body)
	}
	return c
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	return e.doWithHeaders(t, c, method, path, body, nil)
}

func (e *testEnv) doWithHeaders(t *testing.T, c *http.Client, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status = %d, want %d (body %s)", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	return decode[map[string]string](t, body)["error"]
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}
