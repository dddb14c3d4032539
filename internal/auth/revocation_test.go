// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/weam/internal/config"
)

func TestMemoryRevocationStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryRevocationStore()

	if err := s.Revoke(ctx, "live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Revoke(ctx, "already-expired", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke expired: %v", err)
	}

	if revoked, _ := s.IsRevoked(ctx, "live"); !revoked {
		t.Error("live jti should be revoked")
	}
	if revoked, _ := s.IsRevoked(ctx, "already-expired"); revoked {
		t.Error("expired jti should not be stored")
	}
	if revoked, _ := s.IsRevoked(ctx, "unknown"); revoked {
		t.Error("unknown jti should not be revoked")
	}

	// Move the clock past the expiry and sweep.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	removed, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 || s.Len() != 0 {
		t.Errorf("Sweep removed %d, %d left", removed, s.Len())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Revoke(ctx, "x", time.Now().Add(time.Hour)); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Revoke after Close = %v, want ErrStoreClosed", err)
	}
}

func TestBadgerRevocationStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := t.TempDir()

	s, err := OpenBadgerRevocationStore(path)
	if err != nil {
		t.Fatalf("OpenBadgerRevocationStore: %v", err)
	}
	if err := s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Revocations survive a reopen.
	s, err = OpenBadgerRevocationStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if revoked, err := s.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Errorf("IsRevoked after reopen = %v, %v", revoked, err)
	}
	if revoked, err := s.IsRevoked(ctx, "jti-2"); err != nil || revoked {
		t.Errorf("IsRevoked unknown = %v, %v", revoked, err)
	}
	if removed, err := s.Sweep(ctx); err != nil || removed != 0 {
		t.Errorf("Sweep = %d, %v; want 0, nil", removed, err)
	}
}

func TestBadgerRevocationStore_SweepRemovesExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	defer db.Close()

	s := NewBadgerRevocationStoreFromDB(db)
	if err := s.Revoke(ctx, "short", time.Now().Add(1500*time.Millisecond)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Revoke(ctx, "long", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	time.Sleep(2 * time.Second)

	if revoked, _ := s.IsRevoked(ctx, "short"); revoked {
		t.Error("short-lived revocation should have lapsed")
	}
	if _, err := s.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if revoked, _ := s.IsRevoked(ctx, "long"); !revoked {
		t.Error("long-lived revocation lost by sweep")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.IsRevoked(ctx, "long"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("IsRevoked after Close = %v, want ErrStoreClosed", err)
	}
}

func TestNewRevocationStore(t *testing.T) {
	t.Parallel()

	mem, err := NewRevocationStore(&config.RevocationConfig{Store: "memory"})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	defer mem.Close()
	if _, ok := mem.(*MemoryRevocationStore); !ok {
		t.Errorf("memory store type = %T", mem)
	}

	if _, err := NewRevocationStore(&config.RevocationConfig{Store: "redis"}); err == nil {
		t.Error("expected error for unknown store")
	}
	if _, err := NewRevocationStore(&config.RevocationConfig{Store: "badger"}); err == nil {
		t.Error("expected error for badger without path")
	}
}
