// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package logging

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// AuthEvent is one entry in the authentication audit trail.
type AuthEvent struct {
	// Event is login, refresh or logout.
	Event   string
	UserID  int64
	Login   string
	IP      string
	Success bool
	// Reason explains a failure. Never put credentials here.
	Reason string
}

// AuthLogger writes authentication events with credentials masked.
type AuthLogger struct {
	logger zerolog.Logger
}

func NewAuthLogger() *AuthLogger {
	return NewAuthLoggerWithLogger(Logger())
}

// NewAuthLoggerWithLogger tags logger with component=auth.
//
//nolint:gocritic // zerolog.Logger is a value type
func NewAuthLoggerWithLogger(logger zerolog.Logger) *AuthLogger {
	return &AuthLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// Log writes ev at info level on success and warn level on failure.
func (l *AuthLogger) Log(ev *AuthEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", ev.Event).Str("status", status)
	if ev.UserID > 0 {
		e = e.Int64("user_id", ev.UserID)
	}
	if ev.Login != "" {
		e = e.Str("login", SanitizeLogin(ev.Login))
	}
	if ev.IP != "" {
		e = e.Str("ip", ev.IP)
	}
	if ev.Reason != "" && !ev.Success {
		e = e.Str("reason", truncateString(ev.Reason, 200))
	}
	e.Msg("auth event")
}

func (l *AuthLogger) LoginSucceeded(userID int64, login, ip string) {
	l.Log(&AuthEvent{Event: "login", UserID: userID, Login: login, IP: ip, Success: true})
}

func (l *AuthLogger) LoginFailed(login, ip, reason string) {
	l.Log(&AuthEvent{Event: "login", Login: login, IP: ip, Reason: reason})
}

func (l *AuthLogger) Refreshed(userID int64, ip string) {
	l.Log(&AuthEvent{Event: "refresh", UserID: userID, IP: ip, Success: true})
}

func (l *AuthLogger) RefreshRejected(ip, reason string) {
	l.Log(&AuthEvent{Event: "refresh", IP: ip, Reason: reason})
}

func (l *AuthLogger) LoggedOut(userID int64, ip string) {
	l.Log(&AuthEvent{Event: "logout", UserID: userID, IP: ip, Success: true})
}

// SanitizeToken keeps the first and last four characters of a token.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeLogin keeps the first two characters of a login.
func SanitizeLogin(login string) string {
	if login == "" {
		return ""
	}
	r := []rune(login)
	if len(r) <= 2 {
		return "***"
	}
	return string(r[:2]) + "***"
}

var sensitiveKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"password":      true,
	"password_hash": true,
	"secret":        true,
	"authorization": true,
	"cookie":        true,
}

// SanitizeValue prepares a user-supplied value for a log field: sensitive keys
// are masked, control characters are dropped and the result is capped at 200
// characters.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	return truncateString(clean, 200)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
