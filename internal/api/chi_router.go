// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/weam/internal/middleware"
)

// slowRequestThreshold marks requests that get logged at warn level.
const slowRequestThreshold = 500 * time.Millisecond

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mw := router.chiMiddleware

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(mw.SecurityHeaders())
	r.Use(mw.OriginGuard())
	r.Use(mw.CORS()) // must be global to answer OPTIONS preflight
	r.Use(chimiddleware.Compress(5, "application/json", "text/html", "text/css", "application/javascript"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(mw.BodyLimit())
		r.Use(APINoStore)

		r.Get("/health", h.Health)

		// ========================
		// Session
		// ========================
		r.With(mw.RateLimitLogin()).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.With(router.auth.AuthRequired(false)).Get("/me", h.Me)

		// ========================
		// Authenticated Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.auth.AuthRequired(true))

			r.Get("/organizations", h.Organizations)
			r.Get("/responsible", h.Responsible)
			r.Get("/dashboard", h.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.With(router.auth.AdminOnly).Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.With(router.auth.AdminOnly).Delete("/{id}", h.DeleteUser)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.Get("/by-name/{name}", h.ProjectsByName)
				r.Get("/{id}", h.GetProject)
				r.Put("/{id}", h.UpdateProject)
				r.With(router.auth.AdminOnly).Post("/", h.CreateProject)
				r.With(router.auth.AdminOnly).Delete("/{id}", h.DeleteProject)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Get("/query", h.QueryTransactions)
				r.Get("/{id}", h.GetTransaction)

				r.Group(func(r chi.Router) {
					r.Use(router.auth.AdminOnly)
					r.Post("/", h.CreateTransaction)
					r.Put("/{id}", h.UpdateTransaction)
					r.Delete("/{id}", h.DeleteTransaction)
				})
			})
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		})
	})

	// ========================
	// SPA
	// ========================
	r.Get("/*", router.serveStaticOrIndex)

	return r
}
