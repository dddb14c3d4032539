// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired means the refresh token is gone or rejected and the
	// user has to log in again.
	ErrSessionExpired = errors.New("client: session expired")

	// ErrUpdateInFlight is returned by UpdateProjectField while an earlier
	// update of the same project field has not finished.
	ErrUpdateInFlight = errors.New("client: update already in flight")
)

// APIError is a non-2xx response. Message is the server's {"error": ...}
// text when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
