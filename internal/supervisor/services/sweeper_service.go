// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package services

import (
	"context"
	"time"

	"github.com/tomtom215/weam/internal/logging"
)

// Sweeper removes expired entries from a store.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweeperService calls Sweep every interval so that revoked refresh tokens
// are forgotten once they would have expired anyway. A failed sweep is
// logged and retried on the next tick; it does not restart the service.
type SweeperService struct {
	store    Sweeper
	interval time.Duration
	name     string
}

// NewSweeperService creates a sweeper. A non-positive interval means 10m.
func NewSweeperService(store Sweeper, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SweeperService{store: store, interval: interval, name: "revocation-sweeper"}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SweeperService) sweep(ctx context.Context) {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Revocation sweep failed")
		}
		return
	}
	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Expired revocations swept")
	}
}

// String names the service in supervisor logs.
func (s *SweeperService) String() string {
	return s.name
}
