// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/weam/internal/database/query"
	"github.com/tomtom215/weam/internal/models"
)

const dashboardSelect = `SELECT t.project_id, COALESCE(p.name, ''), COALESCE(p.contractor, ''),
	COALESCE(t.date, ''), COALESCE(t.total, 0), COALESCE(t.operationType, '')
FROM transactions t JOIN projects p ON p.id = t.project_id`

// DashboardRows returns the transaction rows the dashboard aggregates.
// Actual rows (non-empty date) honour the date range; planned rows have no
// date and ignore it.
func (db *DB) DashboardRows(ctx context.Context, filter models.DashboardFilter, planned bool) ([]models.DashboardRow, error) {
	wb := query.NewWhereBuilder().
		AddIn("t.operationType", []any{models.OperationIncome, models.OperationExpense})
	if planned {
		wb.AddEmpty("t.date")
	} else {
		wb.AddNonEmpty("t.date")
		wb.AddDateRange("t.date", filter.From, filter.To)
	}
	if filter.UserID != nil {
		wb.AddEqual("p.user_id", *filter.UserID)
	}
	if filter.ProjectID != nil {
		wb.AddEqual("t.project_id", *filter.ProjectID)
	}
	where, args := wb.BuildWithPrefix()

	rows, err := db.query(ctx, db.conn, "dashboard", "transactions",
		dashboardSelect+" "+where+" ORDER BY t.date, t.id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard rows: %w", err)
	}
	defer closeRows(ctx, rows)

	out := []models.DashboardRow{}
	for rows.Next() {
		var r models.DashboardRow
		if err := rows.Scan(&r.ProjectID, &r.ProjectName, &r.Contractor, &r.Date, &r.Total, &r.OperationType); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
