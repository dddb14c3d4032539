// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"net/http"
	"time"

	"github.com/tomtom215/weam/internal/config"
)

// CookieManager writes and reads the session cookies. Both cookies are
// HttpOnly with Path "/".
type CookieManager struct {
	accessName  string
	refreshName string
	domain      string
	sameSite    http.SameSite
	secure      bool
}

// NewCookieManager builds a CookieManager. Secure is forced in production and
// whenever SameSite=None.
func NewCookieManager(cfg *config.Config) *CookieManager {
	return &CookieManager{
		accessName:  cfg.Cookie.AccessName,
		refreshName: cfg.Cookie.RefreshName,
		domain:      cfg.Cookie.Domain,
		sameSite:    cfg.Cookie.SameSiteMode(),
		secure:      cfg.CookieSecure(),
	}
}

// AccessName returns the access cookie name.
func (c *CookieManager) AccessName() string { return c.accessName }

// RefreshName returns the refresh cookie name.
func (c *CookieManager) RefreshName() string { return c.refreshName }

// SetSession writes both session cookies.
func (c *CookieManager) SetSession(w http.ResponseWriter, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	c.SetAccess(w, access, accessExp)
	http.SetCookie(w, c.cookie(c.refreshName, refresh, refreshExp))
}

// SetAccess writes only the access cookie, as refresh does.
func (c *CookieManager) SetAccess(w http.ResponseWriter, access string, exp time.Time) {
	http.SetCookie(w, c.cookie(c.accessName, access, exp))
}

// Clear expires both session cookies.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.accessName, c.refreshName} {
		ck := c.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

// Read returns the value of the named cookie or "".
func (c *CookieManager) Read(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c *CookieManager) cookie(name, value string, exp time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	}
	if maxAge := int(time.Until(exp).Seconds()); maxAge > 0 {
		ck.MaxAge = maxAge
	}
	return ck
}
