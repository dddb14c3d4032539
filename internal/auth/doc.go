// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

/*
Package auth implements cookie-based JWT sessions.

A successful login issues two HS256 tokens delivered as HttpOnly cookies.
The access token is short lived (default 15m) and carries the user id as sub
plus login and role, with typ "access". The refresh token (default 7d)
carries sub "refresh" and typ "refresh" and is signed with the refresh
secret.

VerifyAccess rejects anything marked as a refresh token and VerifyRefresh
rejects anything without both refresh markers, so neither token can be
replayed in the other's place even when both secrets are equal.

Refresh tokens carry a jti. Logout records it in a RevocationStore (memory or
BadgerDB) until the token would have expired anyway; the sweeper service
purges stale entries.

Middleware.AuthRequired(true) answers 401 when the access cookie is missing
or invalid. AuthRequired(false) lets the request through without a
principal, which is how /api/me reports an anonymous visitor. AdminOnly must
run after AuthRequired.
*/
package auth
