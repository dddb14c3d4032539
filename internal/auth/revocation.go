// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/metrics"
)

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = errors.New("revocation store is closed")

// RevocationStore remembers logged-out refresh token IDs until the tokens
// expire.
type RevocationStore interface {
	// Revoke records jti as unusable until expiresAt.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether jti was revoked and has not yet expired.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Sweep drops expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// NewRevocationStore opens the store selected by cfg.Store.
func NewRevocationStore(cfg *config.RevocationConfig) (RevocationStore, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryRevocationStore(), nil
	case "badger":
		return OpenBadgerRevocationStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown revocation store %q", cfg.Store)
	}
}

// MemoryRevocationStore keeps revocations in a map. Entries are lost on
// restart, which at worst re-enables a logged-out refresh token.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	closed  bool
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if !expiresAt.After(s.now()) {
		return nil
	}
	s.entries[jti] = expiresAt
	metrics.RevokedTokens.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	exp, ok := s.entries[jti]
	return ok && s.now().Before(exp), nil
}

func (s *MemoryRevocationStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	now := s.now()
	removed := 0
	for jti, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, jti)
			removed++
		}
	}
	metrics.RevokedTokens.Set(float64(len(s.entries)))
	return removed, nil
}

// Len returns the number of held entries, expired or not.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}
