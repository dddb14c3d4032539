// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/weam/internal/api"
	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/database"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/supervisor"
	"github.com/tomtom215/weam/internal/supervisor/services"
)

// policyCacheTTL bounds how long a field-permission decision is reused.
const policyCacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("revocation_store", cfg.Revocation.Store).
		Strs("cors_origins", cfg.Security.CORSOrigins).
		Msg("Starting WEAM server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Server stopped gracefully")
}

// run owns every resource so that deferred cleanup happens before main
// decides the exit status.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	cookies := auth.NewCookieManager(cfg)

	revocations, err := auth.NewRevocationStore(&cfg.Revocation)
	if err != nil {
		return fmt.Errorf("revocation store: %w", err)
	}
	defer func() {
		if err := revocations.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing revocation store")
		}
	}()

	policy, err := authz.NewFieldPolicy(policyCacheTTL)
	if err != nil {
		return fmt.Errorf("field policy: %w", err)
	}
	defer policy.Close()

	handler := api.NewHandler(db, cfg, tokens, cookies, policy, revocations)
	router := api.NewRouter(handler, auth.NewMiddleware(tokens, cookies))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewSweeperService(revocations, cfg.Revocation.SweepInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Listening")

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
