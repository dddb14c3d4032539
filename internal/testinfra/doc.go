// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package testinfra provides test infrastructure for packages that need a
// real SQLite database.
//
// The server never creates its schema; production files are provisioned
// ahead of time. Tests instead open a private in-memory database and apply
// the embedded schema.sql, which mirrors the production layout:
//
//	func TestProjects(t *testing.T) {
//	    ctx := context.Background()
//	    db, err := database.New(ctx, testinfra.DatabaseConfig(t))
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    t.Cleanup(func() { db.Close() })
//	    testinfra.ApplySchema(t, db.Conn())
//	    ownerID := testinfra.SeedUser(t, db.Conn(), "owner", "password", "user")
//	    // ...
//	}
//
// Each call to DatabaseConfig returns a distinct shared-cache memory DSN so
// parallel tests never see each other's rows.
package testinfra
