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

// ProjectColumns are the writable projects columns. name is derived and
// never accepted from callers.
var ProjectColumns = map[string]bool{
	"contractor": true,
	"project":    true,
	"section":    true,
	"direction":  true,
	"grouping":   true,
	"amount":     true,
	"note":       true,
	"start":      true,
	"end":        true,
	"status":     true,
	"progress":   true,
	"user_id":    true,
}

// remainderCalcExpr is the contract amount minus the sum of actual (dated)
// transactions whose type matches the project direction: income for
// receivables, expenses for payables. Planned rows never count.
var remainderCalcExpr = fmt.Sprintf(`COALESCE(p.amount, 0) - COALESCE((
	SELECT SUM(t.total) FROM transactions t
	WHERE t.project_id = p.id
	  AND COALESCE(t.date, '') <> ''
	  AND t.operationType = CASE p.direction WHEN '%s' THEN '%s' WHEN '%s' THEN '%s' END
), 0)`, models.DirectionReceivable, models.OperationIncome, models.DirectionPayable, models.OperationExpense)

var projectSelect = `SELECT p.id, COALESCE(p.contractor, ''), COALESCE(p.project, ''),
	COALESCE(p.section, ''), COALESCE(p.direction, ''), COALESCE(p."grouping", ''),
	COALESCE(p.amount, 0), COALESCE(p.note, ''), COALESCE(p.start, ''), COALESCE(p."end", ''),
	COALESCE(p.status, ''), COALESCE(p.progress, 0), p.user_id, COALESCE(p.name, ''),
	` + remainderCalcExpr + ` AS remainder_calc
FROM projects p`

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p      models.Project
		userID sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Contractor, &p.Project, &p.Section, &p.Direction, &p.Grouping,
		&p.Amount, &p.Note, &p.Start, &p.End, &p.Status, &p.Progress, &userID, &p.Name, &p.RemainderCalc)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		p.UserID = &id
	}
	return &p, nil
}

func (db *DB) scanProjects(ctx context.Context, stmt string, args ...any) ([]models.Project, error) {
	rows, err := db.query(ctx, db.conn, "select", "projects", stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer closeRows(ctx, rows)

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// ListProjects returns projects matching filter ordered by id.
func (db *DB) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	wb := query.NewWhereBuilder()
	if filter.UserID != nil {
		wb.AddEqual("p.user_id", *filter.UserID)
	}
	wb.AddEqualIfSet("p.status", filter.Status)
	wb.AddEqualIfSet("p.direction", filter.Direction)
	where, args := wb.BuildWithPrefix()

	return db.scanProjects(ctx, projectSelect+" "+where+" ORDER BY p.id", args...)
}

// GetProject returns the project with id or ErrNotFound.
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(db.queryRow(ctx, db.conn, "select", "projects", projectSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ProjectsByName returns every project whose derived name equals name.
// Several sections of one contract share a name.
func (db *DB) ProjectsByName(ctx context.Context, name string, ownerID *int64) ([]models.Project, error) {
	wb := query.NewWhereBuilder().AddEqual("p.name", name)
	if ownerID != nil {
		wb.AddEqual("p.user_id", *ownerID)
	}
	where, args := wb.BuildWithPrefix()
	return db.scanProjects(ctx, projectSelect+" "+where+" ORDER BY p.id", args...)
}

// CreateProject inserts p with its derived name and returns the stored row
// including remainder_calc.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	res, err := db.exec(ctx, db.conn, "insert", "projects",
		`INSERT INTO projects (contractor, project, section, direction, "grouping", amount, note, start, "end", status, progress, user_id, name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Contractor, p.Project, nullIfEmpty(p.Section), nullIfEmpty(p.Direction), nullIfEmpty(p.Grouping),
		p.Amount, nullIfEmpty(p.Note), nullIfEmpty(p.Start), nullIfEmpty(p.End), nullIfEmpty(p.Status),
		p.Progress, p.UserID, models.ProjectName(p.Contractor, p.Project))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}
	return db.GetProject(ctx, id)
}

// UpdateProject writes the given columns. When contractor or project change,
// name is regenerated in the same transaction.
func (db *DB) UpdateProject(ctx context.Context, id int64, values map[string]any) (*models.Project, error) {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		var contractor, project string
		err := db.queryRow(ctx, tx, "select", "projects",
			"SELECT COALESCE(contractor, ''), COALESCE(project, '') FROM projects WHERE id = ?", id).
			Scan(&contractor, &project)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read project: %w", err)
		}

		columns := make(map[string]bool, len(ProjectColumns)+1)
		for k := range ProjectColumns {
			columns[k] = true
		}
		patch := make(map[string]any, len(values)+1)
		for k, v := range values {
			patch[k] = v
		}

		_, hasContractor := patch["contractor"]
		_, hasProject := patch["project"]
		if hasContractor || hasProject {
			if v, ok := patch["contractor"].(string); ok {
				contractor = v
			}
			if v, ok := patch["project"].(string); ok {
				project = v
			}
			columns["name"] = true
			patch["name"] = models.ProjectName(contractor, project)
		}

		stmt, args, ok := buildUpdate("projects", columns, patch, id)
		if !ok {
			return nil
		}
		res, err := db.exec(ctx, tx, "update", "projects", stmt, args...)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return rowsAffected(res)
	})
	if err != nil {
		return nil, err
	}
	return db.GetProject(ctx, id)
}

// DeleteProject removes the project and, through the foreign key, its
// transactions.
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	res, err := db.exec(ctx, db.conn, "delete", "projects", "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return rowsAffected(res)
}

// ProjectOwner returns the owning user id of a project, nil when unowned.
func (db *DB) ProjectOwner(ctx context.Context, id int64) (*int64, error) {
	var owner sql.NullInt64
	err := db.queryRow(ctx, db.conn, "select", "projects", "SELECT user_id FROM projects WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project owner: %w", err)
	}
	if !owner.Valid {
		return nil, nil
	}
	v := owner.Int64
	return &v, nil
}

// ListOrganizations returns the distinct non-empty contractors, sorted.
func (db *DB) ListOrganizations(ctx context.Context) ([]string, error) {
	rows, err := db.query(ctx, db.conn, "select", "projects",
		"SELECT DISTINCT contractor FROM projects WHERE COALESCE(contractor, '') <> '' ORDER BY contractor")
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer closeRows(ctx, rows)

	orgs := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, name)
	}
	return orgs, rows.Err()
}
