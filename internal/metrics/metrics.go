// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_http_requests_total",
			Help: "Total number of API requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weam_http_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weam_http_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_http_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"}, // api, login
	)

	// Database

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weam_db_query_duration_seconds",
			Help:    "SQLite statement latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_db_query_errors_total",
			Help: "SQLite statement failures by classified kind",
		},
		[]string{"operation", "table", "kind"},
	)

	// Auth

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_auth_events_total",
			Help: "Login, refresh and logout attempts by outcome",
		},
		[]string{"event", "outcome"},
	)

	FieldsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_authz_fields_dropped_total",
			Help: "Patch fields dropped because the caller's role may not write them",
		},
		[]string{"resource"},
	)

	RevokedTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weam_revoked_refresh_tokens",
			Help: "Refresh tokens currently held in the revocation store",
		},
	)

	// API client

	ClientRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weam_client_refresh_total",
			Help: "Session refreshes performed by the Go API client",
		},
		[]string{"outcome"}, // success, failure, shared
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weam_client_circuit_breaker_state",
			Help: "API client circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records one finished request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge up or down.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records statement latency and, when kind is not empty, a failure.
func RecordDBQuery(operation, table string, duration time.Duration, kind string) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if kind != "" {
		DBQueryErrors.WithLabelValues(operation, table, kind).Inc()
	}
}

// RecordAuthEvent counts an authentication attempt.
func RecordAuthEvent(event string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
