// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/weam/internal/logging"
)

// MinSecretLength is the minimum length of the JWT and refresh secrets.
const MinSecretLength = 32

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = 24 * time.Hour

	minBcryptCost = 4
	maxBcryptCost = 31
)

// placeholderSecrets are values copied from example env files.
var placeholderSecrets = []string{
	"change_me",
	"changeme",
	"your_secret",
	"your-secret",
	"replace_me",
	"secret_key_here",
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecrets,
		c.validateTokenTTLs,
		c.validateCookies,
		c.validateCORS,
		c.validateRateLimits,
		c.validateDatabase,
		c.validateRevocation,
		c.validateLimits,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecrets() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET (or SECRET_KEY) is required")
	}
	if err := validateSecret("JWT_SECRET", c.Security.JWTSecret); err != nil {
		return err
	}
	return validateSecret("REFRESH_SECRET", c.Security.RefreshSecret)
}

func validateSecret(name, secret string) error {
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%s must be at least %d characters", name, MinSecretLength)
	}
	lower := strings.ToLower(secret)
	for _, p := range placeholderSecrets {
		if strings.Contains(lower, p) {
			return fmt.Errorf("%s looks like a placeholder value; generate one with: openssl rand -base64 48", name)
		}
	}
	return nil
}

func (c *Config) validateTokenTTLs() error {
	if c.Security.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.Security.RefreshTokenTTL <= c.Security.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL (%v) must be longer than ACCESS_TOKEN_TTL (%v)",
			c.Security.RefreshTokenTTL, c.Security.AccessTokenTTL)
	}
	if c.Security.BcryptCost < minBcryptCost || c.Security.BcryptCost > maxBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost)
	}
	return nil
}

func (c *Config) validateCookies() error {
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return fmt.Errorf("COOKIE_ACCESS_NAME and COOKIE_REFRESH_NAME must not be empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return fmt.Errorf("COOKIE_ACCESS_NAME and COOKIE_REFRESH_NAME must differ")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, Strict, None")
	}
	return nil
}

// validateCORS rejects the wildcard origin in production: the session lives
// in credentialed cookies, so "*" would let any site drive the API.
func (c *Config) validateCORS() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CLIENT_ORIGINS=* is not allowed in production; list the SPA origins explicitly")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CLIENT_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitMax < minRateLimitRequests || c.Security.RateLimitMax > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_MAX must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.LoginRateLimitMax < minRateLimitRequests || c.Security.LoginRateLimitMax > maxRateLimitRequests {
		return fmt.Errorf("LOGIN_RATE_LIMIT_MAX must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DATABASE_FILE is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("DB_BUSY_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateRevocation() error {
	switch c.Revocation.Store {
	case "memory":
	case "badger":
		if c.Revocation.Path == "" {
			return fmt.Errorf("REVOCATION_PATH is required when REVOCATION_STORE=badger")
		}
	default:
		return fmt.Errorf("REVOCATION_STORE must be memory or badger")
	}
	if c.Revocation.SweepInterval <= 0 {
		return fmt.Errorf("REVOCATION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Limits.MaxTextLength <= 0 || c.Limits.MaxNoteLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH and MAX_NOTE_LENGTH must be positive")
	}
	if c.Limits.MaxQueryRows <= 0 {
		return fmt.Errorf("MAX_QUERY_ROWS must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
