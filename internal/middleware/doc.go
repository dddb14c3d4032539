// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package middleware holds the HTTP middleware shared by every route:
// request IDs, access logging and Prometheus request metrics. All of them
// use the func(http.Handler) http.Handler shape chi expects.
package middleware
