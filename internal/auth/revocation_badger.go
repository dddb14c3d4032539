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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
)

const revocationPrefix = "revoked:"

type revocationEntry struct {
	JTI       string    `json:"jti"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BadgerRevocationStore persists revocations in BadgerDB so a logout
// survives restarts. Entries carry a Badger TTL matching the token expiry.
type BadgerRevocationStore struct {
	db     *badger.DB
	ownsDB bool
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerRevocationStore opens (or creates) a BadgerDB at path.
func OpenBadgerRevocationStore(path string) (*BadgerRevocationStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger revocation store requires a path")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for revocations: %w", err)
	}
	return &BadgerRevocationStore{db: db, ownsDB: true}, nil
}

// NewBadgerRevocationStoreFromDB wraps an already open BadgerDB. Close does
// not close db.
func NewBadgerRevocationStoreFromDB(db *badger.DB) *BadgerRevocationStore {
	return &BadgerRevocationStore{db: db}
}

func (s *BadgerRevocationStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func revocationKey(jti string) []byte {
	return []byte(revocationPrefix + jti)
}

func (s *BadgerRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(revocationEntry{JTI: jti, RevokedAt: time.Now(), ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("marshal revocation: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(revocationKey(jti), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("store revocation: %w", err)
	}
	metrics.RevokedTokens.Inc()
	return nil
}

func (s *BadgerRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var revoked bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(revocationKey(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var entry revocationEntry
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			revoked = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})
	if err != nil {
		return false, fmt.Errorf("read revocation: %w", err)
	}
	return revoked, nil
}

// Sweep deletes entries whose expiry has passed. Badger drops them on its
// own once the TTL lapses; the sweep also keeps the gauge accurate.
func (s *BadgerRevocationStore) Sweep(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	now := time.Now()
	var expired [][]byte
	live := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(revocationPrefix)
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var entry revocationEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if !now.Before(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			live++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan revocations: %w", err)
	}

	if len(expired) > 0 {
		err = s.db.Update(func(txn *badger.Txn) error {
			for _, key := range expired {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("delete expired revocations: %w", err)
		}
	}

	metrics.RevokedTokens.Set(float64(live))
	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Debug().Err(err).Msg("Revocation store value log GC skipped")
	}
	return len(expired), nil
}

func (s *BadgerRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
