// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package config

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdefghijklmnopqrstuvwxyzABCD"

// setRequiredEnv isolates a test from any config files and sets the one
// mandatory variable.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	oldPaths, oldDotEnv := DefaultConfigPaths, DotEnvPath
	DefaultConfigPaths = nil
	DotEnvPath = filepath.Join(dir, ".env")
	t.Cleanup(func() {
		DefaultConfigPaths = oldPaths
		DotEnvPath = oldDotEnv
	})
	t.Setenv("JWT_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Security.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.Security.AccessTokenTTL)
	}
	if cfg.Security.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 168h", cfg.Security.RefreshTokenTTL)
	}
	if cfg.Security.RefreshSecret != testSecret {
		t.Error("RefreshSecret should fall back to JWT_SECRET")
	}
	if cfg.Cookie.AccessName != "access_token" || cfg.Cookie.RefreshName != "refresh_token" {
		t.Errorf("unexpected cookie names %q/%q", cfg.Cookie.AccessName, cfg.Cookie.RefreshName)
	}
	if cfg.Database.BusyTimeout != 5*time.Second {
		t.Errorf("BusyTimeout = %v, want 5s", cfg.Database.BusyTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "900")
	t.Setenv("REFRESH_TOKEN_TTL", "30d")
	t.Setenv("CLIENT_ORIGINS", "https://weam.example.com, https://admin.example.com ,")
	t.Setenv("DATABASE_FILE", "/tmp/weam-test.db")
	t.Setenv("DB_BUSY_TIMEOUT", "2500")
	t.Setenv("COOKIE_SAMESITE", "Strict")
	t.Setenv("LOGIN_RATE_LIMIT_MAX", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Security.AccessTokenTTL != 900*time.Second {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.Security.AccessTokenTTL)
	}
	if cfg.Security.RefreshTokenTTL != 30*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 720h", cfg.Security.RefreshTokenTTL)
	}
	want := []string{"https://weam.example.com", "https://admin.example.com"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Database.Path != "/tmp/weam-test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.BusyTimeout != 2500*time.Millisecond {
		t.Errorf("BusyTimeout = %v, want 2.5s", cfg.Database.BusyTimeout)
	}
	if cfg.Cookie.SameSiteMode() != http.SameSiteStrictMode {
		t.Errorf("SameSiteMode = %v, want Strict", cfg.Cookie.SameSiteMode())
	}
	if cfg.Security.LoginRateLimitMax != 7 {
		t.Errorf("LoginRateLimitMax = %d, want 7", cfg.Security.LoginRateLimitMax)
	}
}

func TestLoad_SecretKeyFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRET_KEY", testSecret+"legacy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWTSecret != testSecret+"legacy" {
		t.Error("JWTSecret should come from SECRET_KEY when JWT_SECRET is empty")
	}
}

func TestLoad_YAMLFileAndDotEnv(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	yamlBody := "server:\n  port: 4100\nsecurity:\n  access_token_ttl: 600\nlimits:\n  max_query_rows: 50\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, yamlPath)

	dotEnv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotEnv, []byte("LOG_FORMAT=console\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	DotEnvPath = dotEnv
	t.Cleanup(func() { os.Unsetenv("LOG_FORMAT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100 from YAML", cfg.Server.Port)
	}
	if cfg.Security.AccessTokenTTL != 10*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 10m from YAML seconds", cfg.Security.AccessTokenTTL)
	}
	if cfg.Limits.MaxQueryRows != 50 {
		t.Errorf("MaxQueryRows = %d, want 50", cfg.Limits.MaxQueryRows)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console from .env", cfg.Logging.Format)
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable ACCESS_TOKEN_TTL")
	}
}

func TestParseTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"900", 900 * time.Second, false},
		{"15m", 15 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{" 2d ", 48 * time.Hour, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"-1h", 0, true},
		{"", 0, true},
		{"xd", 0, true},
		{"tomorrow", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTTL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTTL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTTL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	cfg.Security.RefreshSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32"},
		{"placeholder secret", func(c *Config) {
			c.Security.JWTSecret = "change_me_change_me_change_me_change_me"
		}, "placeholder"},
		{"short refresh secret", func(c *Config) { c.Security.RefreshSecret = "tiny" }, "REFRESH_SECRET"},
		{"refresh not longer than access", func(c *Config) {
			c.Security.RefreshTokenTTL = c.Security.AccessTokenTTL
		}, "REFRESH_TOKEN_TTL"},
		{"bad samesite", func(c *Config) { c.Cookie.SameSite = "sometimes" }, "COOKIE_SAMESITE"},
		{"same cookie names", func(c *Config) { c.Cookie.RefreshName = c.Cookie.AccessName }, "must differ"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "CLIENT_ORIGINS"},
		{"origin without scheme", func(c *Config) { c.Security.CORSOrigins = []string{"weam.local"} }, "http://"},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitMax = 0 }, "RATE_LIMIT_MAX"},
		{"rate limit zero but disabled", func(c *Config) {
			c.Security.RateLimitMax = 0
			c.Security.RateLimitDisabled = true
		}, ""},
		{"unknown revocation store", func(c *Config) { c.Revocation.Store = "redis" }, "REVOCATION_STORE"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "LOG_LEVEL"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCookieSecure(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if cfg.CookieSecure() {
		t.Error("development with Lax should not force Secure")
	}

	cfg.Cookie.SameSite = "None"
	if !cfg.CookieSecure() {
		t.Error("SameSite=None requires Secure")
	}

	cfg = validConfig()
	cfg.Server.Environment = "production"
	if !cfg.CookieSecure() {
		t.Error("production must force Secure")
	}
}
