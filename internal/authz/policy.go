// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package authz

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const actionWrite = "write"

// Resource names.
const (
	ResourceProjects     = "projects"
	ResourceUsers        = "users"
	ResourceTransactions = "transactions"
)

// resourceFields are the patch keys each resource understands. users.password
// is a plain-text password that the handler hashes.
var resourceFields = map[string][]string{
	ResourceProjects: {
		"contractor", "project", "section", "direction", "grouping", "amount",
		"note", "start", "end", "status", "progress", "user_id",
	},
	ResourceUsers: {"login", "password", "role", "nickname"},
	ResourceTransactions: {
		"responsible", "date", "total", "operationType", "note", "project_id", "remainder",
	},
}

// FieldPolicy answers which fields of a resource a role may write.
type FieldPolicy struct {
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
	fields   map[string]map[string]bool
}

// NewFieldPolicy loads the embedded model and policy. Decisions are cached
// for cacheTTL; zero selects the default.
func NewFieldPolicy(cacheTTL time.Duration) (*FieldPolicy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	fields := make(map[string]map[string]bool, len(resourceFields))
	for resource, list := range resourceFields {
		set := make(map[string]bool, len(list))
		for _, f := range list {
			set[f] = true
		}
		fields[resource] = set
	}

	return &FieldPolicy{
		enforcer: enforcer,
		cache:    newDecisionCache(cacheTTL),
		fields:   fields,
	}, nil
}

// loadEmbeddedPolicy parses p and g lines of the policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch ptype, rule := parts[0], parts[1:]; ptype {
		case "p":
			if len(rule) < 3 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case "g":
			if len(rule) < 2 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", ptype)
		}
	}
	return nil
}

// Fields returns the sorted patch keys of resource.
func (p *FieldPolicy) Fields(resource string) []string {
	out := make([]string, 0, len(p.fields[resource]))
	for f := range p.fields[resource] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Allowed reports whether role may write resource.field. Unknown fields are
// never allowed.
func (p *FieldPolicy) Allowed(role, resource, field string) bool {
	if !p.fields[resource][field] {
		return false
	}
	obj := resource + "." + field
	if allowed, ok := p.cache.get(role, obj); ok {
		return allowed
	}

	allowed, err := p.enforcer.Enforce(role, obj, actionWrite)
	if err != nil {
		logging.Error().Err(err).Str("role", role).Str("object", obj).Msg("Field policy evaluation failed")
		return false
	}
	p.cache.set(role, obj, allowed)
	return allowed
}

// Apply returns the subset of patch that role may write on resource.
// Everything else is dropped silently.
func (p *FieldPolicy) Apply(role, resource string, patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if p.Allowed(role, resource, k) {
			out[k] = v
			continue
		}
		metrics.FieldsDropped.WithLabelValues(resource).Inc()
		logging.Debug().Str("role", role).Str("resource", resource).Str("field", k).Msg("Dropped unwritable field")
	}
	return out
}

// Close drops cached decisions. The policy stays usable and re-evaluates
// against the enforcer afterwards.
func (p *FieldPolicy) Close() {
	p.cache.reset()
}
