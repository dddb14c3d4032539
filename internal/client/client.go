// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
	"github.com/tomtom215/weam/internal/models"
)

const (
	loginPath   = "/api/login"
	refreshPath = "/api/refresh"

	refreshKey     = "refresh"
	refreshTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client talks to the WEAM API with a cookie session. It is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]

	onSessionExpired func()
	onLoginPage      func() bool

	refreshes singleflight.Group
	// generation counts successful refreshes.
	generation atomic.Uint64

	inFlight sync.Map
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient       *http.Client
	timeout          time.Duration
	breakerName      string
	breaker          BreakerSettings
	onSessionExpired func()
	onLoginPage      func() bool
}

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced
// when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithBreaker overrides the circuit breaker name and thresholds.
func WithBreaker(name string, s BreakerSettings) Option {
	return func(o *options) {
		o.breakerName = name
		o.breaker = s
	}
}

// WithOnSessionExpired registers the hook run when the session cannot be
// refreshed. A UI typically navigates to its login screen here.
func WithOnSessionExpired(fn func()) Option {
	return func(o *options) { o.onSessionExpired = fn }
}

// WithLoginPage reports whether the caller is already showing the login
// screen, in which case the session-expired hook is not run.
func WithLoginPage(fn func() bool) Option {
	return func(o *options) { o.onLoginPage = fn }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	o := options{
		timeout:     30 * time.Second,
		breakerName: "weam-api",
		breaker:     DefaultBreakerSettings(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	return &Client{
		base:             base,
		http:             hc,
		breaker:          newBreaker(o.breakerName, o.breaker),
		onSessionExpired: o.onSessionExpired,
		onLoginPage:      o.onLoginPage,
	}, nil
}

// Do sends a JSON request and decodes a 2xx body into out (which may be
// nil). A 401 on any path other than login and refresh triggers one shared
// refresh followed by a single retry.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	gen := c.generation.Load()
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && refreshable(path) {
		if err := c.refresh(ctx, gen); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, body); err != nil {
			return err
		}
		if resp.status == http.StatusUnauthorized {
			c.sessionExpired()
			return ErrSessionExpired
		}
	}

	return decodeResponse(resp, out)
}

func refreshable(path string) bool {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p != loginPath && p != refreshPath
}

// refresh renews the access cookie unless a refresh already succeeded
// after the failed request was sent.
func (c *Client) refresh(ctx context.Context, sentAt uint64) error {
	if c.generation.Load() != sentAt {
		metrics.ClientRefreshes.WithLabelValues("shared").Inc()
		return nil
	}

	// The shared call must not die with whichever caller happened to start it.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	_, err, shared := c.refreshes.Do(refreshKey, func() (any, error) {
		if c.generation.Load() != sentAt {
			return nil, nil
		}
		resp, err := c.send(rctx, http.MethodPost, refreshPath, nil)
		if err != nil {
			metrics.ClientRefreshes.WithLabelValues("failure").Inc()
			return nil, err
		}
		if resp.status != http.StatusOK {
			metrics.ClientRefreshes.WithLabelValues("failure").Inc()
			logging.Ctx(ctx).Debug().Int("status", resp.status).Msg("Session refresh rejected")
			c.sessionExpired()
			return nil, ErrSessionExpired
		}
		c.generation.Add(1)
		metrics.ClientRefreshes.WithLabelValues("success").Inc()
		return nil, nil
	})
	if shared {
		metrics.ClientRefreshes.WithLabelValues("shared").Inc()
	}
	return err
}

func (c *Client) sessionExpired() {
	if c.onSessionExpired == nil {
		return
	}
	if c.onLoginPage != nil && c.onLoginPage() {
		return
	}
	c.onSessionExpired()
}

// send performs one round trip through the circuit breaker. Responses
// below 500 are returned as-is; 5xx become an *APIError.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	return c.breaker.Execute(func() (*response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := logging.RequestIDFromContext(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer res.Body.Close()

		data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		resp := &response{status: res.StatusCode, header: res.Header, body: data}
		if resp.status >= http.StatusInternalServerError {
			return nil, resp.apiError()
		}
		return resp, nil
	})
}

func (c *Client) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path %q must start with /", path)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	u := *c.base
	u.Path = c.base.Path + ref.Path
	u.RawPath = ""
	if ref.RawPath != "" {
		u.RawPath = c.base.EscapedPath() + ref.RawPath
	}
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func (r *response) apiError() *APIError {
	var body models.ErrorResponse
	if len(r.body) > 0 && json.Unmarshal(r.body, &body) == nil {
		return &APIError{Status: r.status, Message: body.Error}
	}
	return &APIError{Status: r.status}
}

func decodeResponse(resp *response, out any) error {
	if resp.status < 200 || resp.status > 299 {
		return resp.apiError()
	}
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
