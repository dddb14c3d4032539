// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package config loads WEAM configuration from defaults, an optional YAML file,
// an optional .env file and environment variables, in that order of
// increasing priority. Load validates the result and fails fast on anything
// the server cannot safely run with.
package config

import (
	"net/http"
	"strings"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Cookie     CookieConfig     `koanf:"cookie"`
	Database   DatabaseConfig   `koanf:"database"`
	Revocation RevocationConfig `koanf:"revocation"`
	Limits     LimitsConfig     `koanf:"limits"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig controls the HTTP listener and the SPA bundle location.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Environment     string        `koanf:"environment"`
	StaticDir       string        `koanf:"static_dir"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds token secrets, lifetimes, CORS and rate limits.
type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	// SecretKey is the legacy name for JWTSecret and only used when JWTSecret is empty.
	SecretKey     string `koanf:"secret_key"`
	RefreshSecret string `koanf:"refresh_secret"`

	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
	BcryptCost      int           `koanf:"bcrypt_cost"`

	CORSOrigins []string `koanf:"cors_origins"`

	// The general API limiter and the login limiter share RateLimitWindow.
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitMax      int           `koanf:"rate_limit_max"`
	LoginRateLimitMax int           `koanf:"login_rate_limit_max"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CookieConfig controls the names and flags of the session cookies.
type CookieConfig struct {
	AccessName  string `koanf:"access_name"`
	RefreshName string `koanf:"refresh_name"`
	SameSite    string `koanf:"same_site"`
	Secure      bool   `koanf:"secure"`
	Domain      string `koanf:"domain"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path        string        `koanf:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// RevocationConfig selects where revoked refresh tokens are remembered.
type RevocationConfig struct {
	// Store is memory or badger.
	Store         string        `koanf:"store"`
	Path          string        `koanf:"path"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LimitsConfig caps request sizes and free-text lengths.
type LimitsConfig struct {
	MaxBodyBytes  int64 `koanf:"max_body_bytes"`
	MaxTextLength int   `koanf:"max_text_length"`
	MaxNoteLength int   `koanf:"max_note_length"`
	MaxQueryRows  int   `koanf:"max_query_rows"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Server.Environment))
	return env == "production" || env == "prod"
}

// CookieSecure reports whether session cookies get the Secure flag. It is
// forced on in production and whenever SameSite=None.
func (c *Config) CookieSecure() bool {
	return c.Cookie.Secure || c.IsProduction() || c.Cookie.SameSiteMode() == http.SameSiteNoneMode
}

// SameSiteMode converts the configured SameSite string. Unknown values fall
// back to Lax; Validate rejects them before this matters.
func (c *CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
