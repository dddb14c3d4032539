// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/weam/internal/auth"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestNewSweeperService_DefaultInterval(t *testing.T) {
	t.Parallel()

	svc := NewSweeperService(&countingSweeper{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "revocation-sweeper" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestSweeperService_SweepsUntilCanceled(t *testing.T) {
	t.Parallel()

	store := &countingSweeper{err: errors.New("disk busy")}
	svc := NewSweeperService(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for store.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps ran", store.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	// Sweep errors do not stop the service; only cancellation does.
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestSweeperService_DropsExpiredRevocations(t *testing.T) {
	t.Parallel()

	store := auth.NewMemoryRevocationStore()
	ctx := context.Background()
	if err := store.Revoke(ctx, "short", time.Now().Add(20*time.Millisecond)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if err := store.Revoke(ctx, "live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	NewSweeperService(store, time.Hour).sweep(ctx)

	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if revoked, _ := store.IsRevoked(ctx, "live"); !revoked {
		t.Error("unexpired revocation was swept")
	}
}
