// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/logging"
)

// Router binds the handler and middleware to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
	staticDir     string
}

// NewRouter creates the router. The middleware configuration comes from
// the handler's application config.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	return &Router{
		handler:       handler,
		auth:          authMiddleware,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromConfig(handler.cfg)),
		staticDir:     handler.cfg.Server.StaticDir,
	}
}

// serveStaticOrIndex serves files from the SPA build and falls back to
// index.html for any other path so client-side routing works.
func (router *Router) serveStaticOrIndex(w http.ResponseWriter, r *http.Request) {
	if router.staticDir == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	p := path.Clean("/" + r.URL.Path)
	if p == "/" || p == "/index.html" || !router.fileExists(p) {
		router.serveIndex(w, r)
		return
	}

	// Bundlers put content hashes in asset names, so these never change.
	if strings.HasPrefix(p, "/assets/") || strings.HasSuffix(p, ".js") || strings.HasSuffix(p, ".css") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	http.FileServer(http.Dir(router.staticDir)).ServeHTTP(w, r)
}

// serveIndex writes index.html directly. http.ServeFile would redirect
// /index.html to /.
func (router *Router) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(router.staticDir, "index.html"))
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("static_dir", router.staticDir).Msg("SPA index not found")
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", stat.ModTime(), f)
}

// fileExists reports whether p names a regular file inside the static dir.
func (router *Router) fileExists(p string) bool {
	f, err := http.Dir(router.staticDir).Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return !stat.IsDir()
}
