// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package models holds the records stored in SQLite and the JSON shapes the
// API returns. JSON field names match the SPA's expectations, including the
// camel-cased operationType on transactions.
package models
