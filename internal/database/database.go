// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package database owns the SQLite handle and every SQL statement WEAM runs.
//
// The schema is never created or migrated here. EnsureSchema verifies at
// startup that the expected tables and columns exist so a mismatched file is
// rejected before the server accepts traffic.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tomtom215/weam/internal/config"
	"github.com/tomtom215/weam/internal/logging"
	"github.com/tomtom215/weam/internal/metrics"
)

// ErrNotFound is returned when a statement matched no rows.
var ErrNotFound = errors.New("record not found")

// DB is the application's storage handle. It is created once in main and
// passed to the HTTP layer; nothing in this package is global.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// hasTxRemainder records whether transactions.remainder exists. Set by
	// EnsureSchema before the server starts.
	hasTxRemainder atomic.Bool
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New opens the SQLite file at cfg.Path with foreign keys, WAL journaling and
// a busy timeout, using a single pooled connection. Paths starting with
// "file:" are passed to the driver unchanged apart from the pragmas, which
// is how tests open in-memory databases.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") && cfg.Path != ":memory:" {
		if err := ensureWritable(cfg.Path); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.applyPragmas(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

func busyTimeoutMillis(cfg *config.DatabaseConfig) int64 {
	if cfg.BusyTimeout <= 0 {
		return 5000
	}
	return cfg.BusyTimeout.Milliseconds()
}

func buildDSN(cfg *config.DatabaseConfig) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeoutMillis(cfg)))

	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	return cfg.Path + sep + params.Encode()
}

// applyPragmas repeats the DSN pragmas explicitly so the settings do not
// depend on driver DSN parsing.
func (db *DB) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis(db.cfg)),
	}
	for _, p := range pragmas {
		if _, err := db.conn.ExecContext(ctx, p); err != nil {
			logReadOnlyHint(err, db.cfg.Path)
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// ensureWritable creates the parent directory and checks that both the
// directory and an existing database file can be written. SQLite needs the
// directory for its -wal and -shm files.
func ensureWritable(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	if dir == "" {
		dir = "."
	}

	probe, err := os.CreateTemp(dir, ".weam-write-check-*")
	if err != nil {
		return fmt.Errorf("database directory %s is not writable (check ownership and mount options): %w", dir, err)
	}
	name := probe.Name()
	closeQuietly(probe)
	_ = os.Remove(name)

	if _, err := os.Stat(path); err == nil {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("database file %s is not writable (check ownership and permissions): %w", path, err)
		}
		closeQuietly(f)
	}
	return nil
}

// Conn exposes the underlying handle for health checks and tests.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the handle.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// WithTx runs fn inside a transaction and commits when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Ctx(ctx).Warn().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) query(ctx context.Context, q querier, op, table, stmt string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, stmt, args...)
	db.observe(op, table, start, err)
	return rows, err
}

func (db *DB) queryRow(ctx context.Context, q querier, op, table, stmt string, args ...any) *sql.Row {
	start := time.Now()
	row := q.QueryRowContext(ctx, stmt, args...)
	db.observe(op, table, start, row.Err())
	return row
}

func (db *DB) exec(ctx context.Context, q querier, op, table, stmt string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := q.ExecContext(ctx, stmt, args...)
	db.observe(op, table, start, err)
	return res, err
}

func (db *DB) observe(op, table string, start time.Time, err error) {
	kind := ""
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		kind = ClassifyError(err).Kind
		logReadOnlyHint(err, db.cfg.Path)
	}
	metrics.RecordDBQuery(op, table, time.Since(start), kind)
}

// logReadOnlyHint explains SQLITE_READONLY failures, which almost always
// mean the process cannot write the file or its directory. The error itself
// is still returned to the caller.
func logReadOnlyHint(err error, path string) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrReadonly {
		return
	}
	logging.Error().Err(err).Str("path", path).
		Msg("SQLite is read-only: make sure the server user can write the database file and its directory (for the -wal and -shm files)")
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// closeRows closes a result set and logs a failure.
func closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close rows")
	}
}
