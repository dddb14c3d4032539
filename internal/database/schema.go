// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/weam/internal/logging"
)

// requiredColumns lists every table and column the repositories read or
// write. transactions.remainder is optional and probed separately.
var requiredColumns = map[string][]string{
	"users":        {"id", "login", "password_hash", "role", "nickname"},
	"projects":     {"id", "contractor", "project", "section", "direction", "grouping", "amount", "note", "start", "end", "status", "progress", "user_id", "name"},
	"transactions": {"id", "responsible", "date", "total", "operationType", "note", "project_id"},
}

// SchemaError names everything that is missing from the database file.
type SchemaError struct {
	MissingTables  []string
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.MissingTables) > 0 {
		parts = append(parts, "missing tables: "+strings.Join(e.MissingTables, ", "))
	}
	if len(e.MissingColumns) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.MissingColumns, ", "))
	}
	return "database schema check failed: " + strings.Join(parts, "; ")
}

// EnsureSchema verifies that the required tables and columns exist. Nothing
// is created or altered. It also records whether transactions.remainder is
// present.
func (db *DB) EnsureSchema(ctx context.Context) error {
	tables := make([]string, 0, len(requiredColumns))
	for table := range requiredColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	schemaErr := &SchemaError{}
	for _, table := range tables {
		cols, err := db.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			schemaErr.MissingTables = append(schemaErr.MissingTables, table)
			continue
		}
		for _, col := range requiredColumns[table] {
			if !cols[strings.ToLower(col)] {
				schemaErr.MissingColumns = append(schemaErr.MissingColumns, table+"."+col)
			}
		}
		if table == "transactions" {
			db.hasTxRemainder.Store(cols["remainder"])
		}
	}

	if len(schemaErr.MissingTables) > 0 || len(schemaErr.MissingColumns) > 0 {
		return schemaErr
	}

	logging.Info().
		Bool("transactions_remainder", db.HasTransactionRemainder()).
		Msg("Database schema verified")
	return nil
}

// HasTransactionRemainder reports whether the optional transactions.remainder
// column exists. Only meaningful after EnsureSchema.
func (db *DB) HasTransactionRemainder() bool {
	return db.hasTxRemainder.Load()
}

// tableColumns returns the lower-cased column names of table, or an empty
// map when the table does not exist.
func (db *DB) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := db.query(ctx, db.conn, "schema", table, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer closeRows(ctx, rows)

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}
