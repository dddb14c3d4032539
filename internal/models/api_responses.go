// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package models

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse wraps the current user for /api/login and /api/me. User is
// nil for anonymous /api/me calls.
type UserResponse struct {
	User *User `json:"user"`
}

// OKResponse is returned by endpoints with nothing else to report.
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is the GET /api/health body.
type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Time   string `json:"time"`
}
