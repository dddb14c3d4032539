// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

/*
Package client is the Go counterpart of the browser data layer: a cookie
based session against the WEAM API that silently refreshes the access
token when a request comes back 401.

Refresh coalescing:

Any number of concurrent requests may fail with 401 at once. They share a
single POST /api/refresh through a singleflight group, and a request that
started before the most recent successful refresh retries immediately
instead of refreshing again. If the refresh fails, or the retried request
is still unauthorized, the call returns ErrSessionExpired and the
OnSessionExpired hook runs (unless the caller reports it is already on the
login page).

Circuit breaker:

Every round trip runs through a gobreaker circuit breaker. Transport errors
and 5xx responses count as failures; 4xx responses do not, since they are
answers from a healthy server.

Example:

	c, err := client.New("http://localhost:4000",
		client.WithOnSessionExpired(func() { showLogin() }),
	)
	if err != nil {
		return err
	}
	if _, err := c.Login(ctx, "admin", password); err != nil {
		return err
	}
	dash, err := c.Dashboard(ctx, client.DashboardQuery{From: "2024-01-01"})
*/
package client
