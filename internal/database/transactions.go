// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/weam/internal/database/query"
	"github.com/tomtom215/weam/internal/models"
)

// TransactionColumns are the writable transactions columns. remainder is
// added at runtime when the column exists.
var TransactionColumns = map[string]bool{
	"responsible":   true,
	"date":          true,
	"total":         true,
	"operationType": true,
	"note":          true,
	"project_id":    true,
}

const transactionSelectBase = `SELECT t.id, COALESCE(t.responsible, ''), COALESCE(t.date, ''),
	COALESCE(t.total, 0), COALESCE(t.operationType, ''), COALESCE(t.note, ''), t.project_id,
	COALESCE(p.name, '')`

const transactionFrom = ` FROM transactions t LEFT JOIN projects p ON p.id = t.project_id`

// Dated rows first, newest first; planned rows last.
const transactionOrder = ` ORDER BY CASE WHEN COALESCE(t.date, '') = '' THEN 1 ELSE 0 END, t.date DESC, t.id DESC`

// TransactionWritableColumns returns the writable columns for the schema in
// use.
func (db *DB) TransactionWritableColumns() map[string]bool {
	cols := make(map[string]bool, len(TransactionColumns)+1)
	for k := range TransactionColumns {
		cols[k] = true
	}
	if db.HasTransactionRemainder() {
		cols["remainder"] = true
	}
	return cols
}

func (db *DB) transactionSelect() string {
	if db.HasTransactionRemainder() {
		return transactionSelectBase + ", t.remainder" + transactionFrom
	}
	return transactionSelectBase + transactionFrom
}

func (db *DB) scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	dest := []any{&tx.ID, &tx.Responsible, &tx.Date, &tx.Total, &tx.OperationType, &tx.Note, &tx.ProjectID, &tx.ProjectName}
	var remainder sql.NullFloat64
	if db.HasTransactionRemainder() {
		dest = append(dest, &remainder)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if remainder.Valid {
		v := remainder.Float64
		tx.Remainder = &v
	}
	return &tx, nil
}

// ListTransactions returns transactions matching filter. It serves both the
// plain listing and the query endpoint.
func (db *DB) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	wb := query.NewWhereBuilder()
	if filter.ProjectID != nil {
		wb.AddEqual("t.project_id", *filter.ProjectID)
	}
	if filter.OwnerID != nil {
		wb.AddEqual("p.user_id", *filter.OwnerID)
	}
	wb.AddEqualIfSet("t.operationType", filter.OperationType)
	wb.AddEqualIfSet("t.responsible", filter.Responsible)
	switch filter.Plan {
	case models.PlanActual:
		wb.AddNonEmpty("t.date")
	case models.PlanPlan:
		wb.AddEmpty("t.date")
	}
	wb.AddDateRange("t.date", filter.From, filter.To)
	wb.AddRange("t.total", filter.MinTotal, filter.MaxTotal)
	where, args := wb.BuildWithPrefix()

	stmt := db.transactionSelect() + " " + where + transactionOrder
	if filter.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.query(ctx, db.conn, "select", "transactions", stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer closeRows(ctx, rows)

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := db.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// GetTransaction returns the transaction with id or ErrNotFound.
func (db *DB) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := db.scanTransaction(db.queryRow(ctx, db.conn, "select", "transactions",
		db.transactionSelect()+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// TransactionProjectOwner returns the owner of the project a transaction
// belongs to.
func (db *DB) TransactionProjectOwner(ctx context.Context, id int64) (*int64, error) {
	var owner sql.NullInt64
	err := db.queryRow(ctx, db.conn, "select", "transactions",
		"SELECT p.user_id FROM transactions t JOIN projects p ON p.id = t.project_id WHERE t.id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction owner: %w", err)
	}
	if !owner.Valid {
		return nil, nil
	}
	v := owner.Int64
	return &v, nil
}

// CreateTransaction inserts tx. Remainder is stored only when the column
// exists and a value was given.
func (db *DB) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	columns := `responsible, date, total, operationType, note, project_id`
	placeholders := `?, ?, ?, ?, ?, ?`
	args := []any{nullIfEmpty(tx.Responsible), tx.Date, tx.Total, tx.OperationType, nullIfEmpty(tx.Note), tx.ProjectID}
	if db.HasTransactionRemainder() && tx.Remainder != nil {
		columns += ", remainder"
		placeholders += ", ?"
		args = append(args, *tx.Remainder)
	}

	res, err := db.exec(ctx, db.conn, "insert", "transactions",
		"INSERT INTO transactions ("+columns+") VALUES ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction id: %w", err)
	}
	return db.GetTransaction(ctx, id)
}

// UpdateTransaction writes the given columns and returns the stored row.
func (db *DB) UpdateTransaction(ctx context.Context, id int64, values map[string]any) (*models.Transaction, error) {
	stmt, args, ok := buildUpdate("transactions", db.TransactionWritableColumns(), values, id)
	if ok {
		res, err := db.exec(ctx, db.conn, "update", "transactions", stmt, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}
		if err := rowsAffected(res); err != nil {
			return nil, err
		}
	}
	return db.GetTransaction(ctx, id)
}

// DeleteTransaction removes the transaction.
func (db *DB) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, db.conn, "delete", "transactions", "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return rowsAffected(res)
}
