// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package authz

import (
	"sync"
	"time"
)

const defaultDecisionTTL = 5 * time.Minute

// decisionKey is one role writing one resource.field.
type decisionKey struct {
	role   string
	object string
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

// decisionCache remembers enforcer results. The key space is bounded by
// roles times writable columns, so entries are refreshed in place when they
// expire instead of being swept.
type decisionCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	decisions map[decisionKey]decision
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = defaultDecisionTTL
	}
	return &decisionCache{
		ttl:       ttl,
		now:       time.Now,
		decisions: make(map[decisionKey]decision),
	}
}

func (c *decisionCache) get(role, object string) (allowed, ok bool) {
	c.mu.RLock()
	d, found := c.decisions[decisionKey{role, object}]
	c.mu.RUnlock()

	if !found || !c.now().Before(d.expiresAt) {
		return false, false
	}
	return d.allowed, true
}

func (c *decisionCache) set(role, object string, allowed bool) {
	c.mu.Lock()
	c.decisions[decisionKey{role, object}] = decision{allowed: allowed, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.decisions)
}

// reset forgets every decision, e.g. after the policy is reloaded.
func (c *decisionCache) reset() {
	c.mu.Lock()
	c.decisions = make(map[decisionKey]decision)
	c.mu.Unlock()
}
