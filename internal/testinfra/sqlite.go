// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package testinfra

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/weam/internal/config"
)

//go:embed schema.sql
var schemaSQL string

var dbCounter atomic.Int64

// MemoryDSN returns a unique in-memory SQLite DSN for t.
func MemoryDSN(t testing.TB) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))
}

// DatabaseConfig returns a database configuration pointing at a fresh
// in-memory database.
func DatabaseConfig(t testing.TB) *config.DatabaseConfig {
	t.Helper()
	return &config.DatabaseConfig{Path: MemoryDSN(t), BusyTimeout: 5 * time.Second}
}

// Schema returns the embedded schema.
func Schema() string {
	return schemaSQL
}

// ApplySchema creates the production tables on conn.
func ApplySchema(t testing.TB, conn *sql.DB) {
	t.Helper()
	if _, err := conn.ExecContext(context.Background(), schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

// ApplyLegacySchema creates the tables without the optional
// transactions.remainder column, matching older database files.
func ApplyLegacySchema(t testing.TB, conn *sql.DB) {
	t.Helper()
	ApplySchema(t, conn)
	if _, err := conn.ExecContext(context.Background(), "ALTER TABLE transactions DROP COLUMN remainder"); err != nil {
		t.Fatalf("drop remainder column: %v", err)
	}
}

// SeedUser inserts a user with a bcrypt hash of password and returns its id.
func SeedUser(t testing.TB, conn *sql.DB, login, password, role string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	res, err := conn.ExecContext(context.Background(),
		"INSERT INTO users (login, password_hash, role, nickname) VALUES (?, ?, ?, ?)",
		login, string(hash), role, strings.ToUpper(login[:1])+login[1:])
	if err != nil {
		t.Fatalf("seed user %s: %v", login, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// ProjectSeed describes a project row for SeedProject.
type ProjectSeed struct {
	Contractor string
	Project    string
	Direction  string
	Amount     float64
	Status     string
	UserID     *int64
}

// SeedProject inserts a project and returns its id. The name column is
// derived the same way the repositories do.
func SeedProject(t testing.TB, conn *sql.DB, p ProjectSeed) int64 {
	t.Helper()
	res, err := conn.ExecContext(context.Background(),
		"INSERT INTO projects (contractor, project, direction, amount, status, user_id, name) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.Contractor, p.Project, p.Direction, p.Amount, p.Status, p.UserID, p.Contractor+" / "+p.Project)
	if err != nil {
		t.Fatalf("seed project %s: %v", p.Project, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedTransaction inserts a transaction and returns its id. An empty date
// makes it a planned row.
func SeedTransaction(t testing.TB, conn *sql.DB, projectID int64, date string, total float64, operationType string) int64 {
	t.Helper()
	res, err := conn.ExecContext(context.Background(),
		"INSERT INTO transactions (responsible, date, total, operationType, project_id) VALUES (?, ?, ?, ?, ?)",
		"admin", date, total, operationType, projectID)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
