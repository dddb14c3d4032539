// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package authz decides which fields a role may write.
//
// The decision table lives in an embedded Casbin policy so that the
// per-role allow-lists exist in one place instead of inside each handler:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
//
// Objects are "<resource>.<field>" and the only action is "write". admin
// inherits user and additionally holds "<resource>.*" for every resource.
//
// FieldPolicy.Apply filters a JSON patch: keys that are not fields of the
// resource, or that the role may not write, are dropped without an error.
// Ownership ("is this my project?") is checked by the handlers; this package
// only answers the per-field question.
package authz
