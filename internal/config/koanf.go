// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/weam/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is loaded before environment variables are read. Variables
// already present in the process environment are not overwritten.
var DotEnvPath = ".env"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            4000,
			Host:            "0.0.0.0",
			Environment:     "development",
			StaticDir:       "client/dist",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			BcryptCost:        10,
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitWindow:   15 * time.Minute,
			RateLimitMax:      300,
			LoginRateLimitMax: 20,
		},
		Cookie: CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			SameSite:    "Lax",
		},
		Database: DatabaseConfig{
			Path:        "data/weam.db",
			BusyTimeout: 5 * time.Second,
		},
		Revocation: RevocationConfig{
			Store:         "memory",
			Path:          "data/revocations",
			SweepInterval: 10 * time.Minute,
		},
		Limits: LimitsConfig{
			MaxBodyBytes:  1 << 20,
			MaxTextLength: 255,
			MaxNoteLength: 2000,
			MaxQueryRows:  5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf builds the configuration in layers:
//
//  1. struct defaults
//  2. YAML file (CONFIG_PATH or DefaultConfigPaths), optional
//  3. .env file, optional
//  4. environment variables
//
// and then normalizes slices, durations and secret fallbacks before validating.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processDurationFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applySecretFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applySecretFallbacks resolves SECRET_KEY and REFRESH_SECRET defaults.
func (c *Config) applySecretFallbacks() {
	if c.Security.JWTSecret == "" {
		c.Security.JWTSecret = c.Security.SecretKey
	}
	if c.Security.RefreshSecret == "" {
		c.Security.RefreshSecret = c.Security.JWTSecret
	}
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// durationConfigPaths maps duration settings to the unit assumed for bare
// numbers. Token lifetimes count in seconds, the SQLite busy timeout in
// milliseconds.
var durationConfigPaths = map[string]time.Duration{
	"server.read_timeout":        time.Second,
	"server.write_timeout":       time.Second,
	"server.shutdown_timeout":    time.Second,
	"security.access_token_ttl":  time.Second,
	"security.refresh_token_ttl": time.Second,
	"security.rate_limit_window": time.Second,
	"database.busy_timeout":      time.Millisecond,
	"revocation.sweep_interval":  time.Second,
}

// processDurationFields rewrites string and numeric duration values into
// time.Duration so "7d", "900" and "15m" all unmarshal.
func processDurationFields(k *koanf.Koanf) error {
	for path, unit := range durationConfigPaths {
		var (
			d   time.Duration
			err error
		)
		switch v := k.Get(path).(type) {
		case time.Duration, nil:
			continue
		case string:
			d, err = parseDurationValue(v, unit)
		case int:
			d = time.Duration(v) * unit
		case int64:
			d = time.Duration(v) * unit
		case float64:
			d = time.Duration(v * float64(unit))
		default:
			err = fmt.Errorf("unsupported type %T", v)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := k.Set(path, d); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func parseDurationValue(s string, unit time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", s)
		}
		return time.Duration(n) * unit, nil
	}
	return ParseTTL(s)
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"port":             "server.port",
	"http_port":        "server.port",
	"host":             "server.host",
	"http_host":        "server.host",
	"node_env":         "server.environment",
	"environment":      "server.environment",
	"static_dir":       "server.static_dir",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"jwt_secret":           "security.jwt_secret",
	"secret_key":           "security.secret_key",
	"refresh_secret":       "security.refresh_secret",
	"access_token_ttl":     "security.access_token_ttl",
	"refresh_token_ttl":    "security.refresh_token_ttl",
	"bcrypt_cost":          "security.bcrypt_cost",
	"client_origins":       "security.cors_origins",
	"rate_limit_window":    "security.rate_limit_window",
	"rate_limit_max":       "security.rate_limit_max",
	"login_rate_limit_max": "security.login_rate_limit_max",
	"disable_rate_limit":   "security.rate_limit_disabled",

	"cookie_access_name":  "cookie.access_name",
	"cookie_refresh_name": "cookie.refresh_name",
	"cookie_samesite":     "cookie.same_site",
	"cookie_secure":       "cookie.secure",
	"cookie_domain":       "cookie.domain",

	"database_file":   "database.path",
	"db_busy_timeout": "database.busy_timeout",

	"revocation_store":          "revocation.store",
	"revocation_path":           "revocation.path",
	"revocation_sweep_interval": "revocation.sweep_interval",

	"max_body_bytes":  "limits.max_body_bytes",
	"max_text_length": "limits.max_text_length",
	"max_note_length": "limits.max_note_length",
	"max_query_rows":  "limits.max_query_rows",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
