// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
)

// ChiMiddlewareConfig holds configuration for the chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// Rate limiting configuration. Both limiters share the window.
	RateLimitRequests      int
	LoginRateLimitRequests int
	RateLimitWindow        time.Duration
	RateLimitDisabled      bool

	MaxBodyBytes int64

	// ForceHSTS sends Strict-Transport-Security on every response, not only
	// on requests that arrived over TLS.
	ForceHSTS bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// No cross-origin caller is allowed until origins are configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests:      300,
		LoginRateLimitRequests: 20,
		RateLimitWindow:        15 * time.Minute,

		MaxBodyBytes: 1 << 20,
	}
}

// ChiMiddlewareConfigFromConfig maps the application configuration.
func ChiMiddlewareConfigFromConfig(cfg *config.Config) *ChiMiddlewareConfig {
	mc := DefaultChiMiddlewareConfig()
	mc.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mc.RateLimitRequests = cfg.Security.RateLimitMax
	mc.LoginRateLimitRequests = cfg.Security.LoginRateLimitMax
	mc.RateLimitWindow = cfg.Security.RateLimitWindow
	mc.RateLimitDisabled = cfg.Security.RateLimitDisabled
	mc.MaxBodyBytes = cfg.Limits.MaxBodyBytes
	mc.ForceHSTS = cfg.IsProduction()
	return mc
}

// ChiMiddleware provides chi-compatible middleware factories.
type ChiMiddleware struct {
	config  *ChiMiddlewareConfig
	origins map[string]bool
	cors    func(http.Handler) http.Handler
	csp     string
}

// NewChiMiddleware creates the middleware factory. A nil config selects
// DefaultChiMiddlewareConfig.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}

	m := &ChiMiddleware{
		config:  cfg,
		origins: make(map[string]bool, len(cfg.CORSAllowedOrigins)),
	}
	for _, o := range cfg.CORSAllowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			m.origins[o] = true
		}
	}

	m.cors = cors.Handler(cors.Options{
		AllowOriginFunc:  m.originAllowed,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           cfg.CORSMaxAge,
	})
	m.csp = buildCSP(cfg.CORSAllowedOrigins)
	return m
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// originAllowed accepts requests without Origin, configured origins and
// same-host origins (the SPA served by this server).
func (m *ChiMiddleware) originAllowed(r *http.Request, origin string) bool {
	if origin == "" {
		return true
	}
	origin = normalizeOrigin(origin)
	if m.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// CORS returns the go-chi/cors handler with credentials enabled so the
// session cookies travel on cross-origin calls.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// OriginGuard rejects requests whose Origin is not allowed with 403. The
// CORS handler alone would only withhold headers and let the request run.
func (m *ChiMiddleware) OriginGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !m.originAllowed(r, origin) {
				logging.Ctx(r.Context()).Warn().
					Str("origin", logging.SanitizeValue("origin", origin)).
					Str("path", r.URL.Path).
					Msg("Rejected cross-origin request")
				writeError(w, http.StatusForbidden, "Origin not allowed by CORS")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns the general API limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limiter("api", m.config.RateLimitRequests)
}

// RateLimitLogin returns the login limiter: same window, smaller cap.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.limiter("login", m.config.LoginRateLimitRequests)
}

func (m *ChiMiddleware) limiter(name string, requests int) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || requests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimited.WithLabelValues(name).Inc()
			logging.Ctx(r.Context()).Warn().Str("limiter", name).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)
}

// buildCSP allows the API to be called from the configured client origins
// in addition to 'self'.
func buildCSP(origins []string) string {
	connect := []string{"'self'"}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" && o != "*" {
			connect = append(connect, o)
		}
	}
	return "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: blob:; " +
		"font-src 'self' data:; " +
		"connect-src " + strings.Join(connect, " ") + "; " +
		"object-src 'none'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}

// SecurityHeaders adds CSP and the usual hardening headers to every
// response. HSTS is sent in production or when the request came over TLS.
func (m *ChiMiddleware) SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", m.csp)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			if m.config.ForceHSTS || r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps request bodies. Decoders see *http.MaxBytesError past the
// limit and answer 413.
func (m *ChiMiddleware) BodyLimit() func(http.Handler) http.Handler {
	limit := m.config.MaxBodyBytes
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APINoStore keeps browsers and proxies from caching API responses, which
// carry per-user data.
func APINoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
