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

	"github.com/tomtom215/weam/internal/models"
)

// UserColumns are the writable users columns.
var UserColumns = map[string]bool{
	"login":         true,
	"password_hash": true,
	"role":          true,
	"nickname":      true,
}

const userSelect = `SELECT id, login, password_hash, COALESCE(role, 'user'), COALESCE(nickname, '') FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.Nickname); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.query(ctx, db.conn, "select", "users", userSelect+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeRows(ctx, rows)

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetUser returns the user with id or ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.queryRow(ctx, db.conn, "select", "users", userSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByLogin returns the user with login or ErrNotFound.
func (db *DB) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	u, err := scanUser(db.queryRow(ctx, db.conn, "select", "users", userSelect+" WHERE login = ?", login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return u, nil
}

// CreateUser inserts u and returns its new id. The password must already be
// hashed.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	res, err := db.exec(ctx, db.conn, "insert", "users",
		"INSERT INTO users (login, password_hash, role, nickname) VALUES (?, ?, ?, ?)",
		u.Login, u.PasswordHash, role, nullIfEmpty(u.Nickname))
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// UpdateUser writes the given columns. An empty patch only checks that the
// user exists.
func (db *DB) UpdateUser(ctx context.Context, id int64, values map[string]any) (*models.User, error) {
	stmt, args, ok := buildUpdate("users", UserColumns, values, id)
	if ok {
		res, err := db.exec(ctx, db.conn, "update", "users", stmt, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		if err := rowsAffected(res); err != nil {
			return nil, err
		}
	}
	return db.GetUser(ctx, id)
}

// DeleteUser removes the user. Owned projects keep their rows with user_id
// cleared by the foreign key.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, db.conn, "delete", "users", "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return rowsAffected(res)
}

// ListResponsible returns the people that can be picked as responsible for a
// transaction.
func (db *DB) ListResponsible(ctx context.Context) ([]models.ResponsiblePerson, error) {
	rows, err := db.query(ctx, db.conn, "select", "users",
		"SELECT id, login, COALESCE(nickname, '') FROM users ORDER BY COALESCE(NULLIF(nickname, ''), login)")
	if err != nil {
		return nil, fmt.Errorf("failed to list responsible: %w", err)
	}
	defer closeRows(ctx, rows)

	people := []models.ResponsiblePerson{}
	for rows.Next() {
		var p models.ResponsiblePerson
		if err := rows.Scan(&p.ID, &p.Login, &p.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan responsible: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
