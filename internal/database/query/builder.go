// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Package query assembles parameterized SQL WHERE clauses. Column names are
// always supplied by calling code as constants; user input only ever reaches
// the argument slice.
package query

import (
	"strings"
)

// WhereBuilder collects AND-joined conditions and their positional arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddEqual("t.project_id", 7).AddDateRange("t.date", "2024-01-01", "")
//	where, args := wb.Build()
//	// t.project_id = ? AND t.date >= ?
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder returns an empty builder; Build on it yields "1=1".
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// Add appends a raw condition. The clause must contain one ? per argument.
func (wb *WhereBuilder) Add(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEqual adds "column = ?".
func (wb *WhereBuilder) AddEqual(column string, value any) *WhereBuilder {
	return wb.Add(column+" = ?", value)
}

// AddEqualIfSet adds "column = ?" unless value is empty.
func (wb *WhereBuilder) AddEqualIfSet(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddEqual(column, value)
}

// AddDateRange bounds a YYYY-MM-DD text column inclusively. Empty bounds are
// skipped. The strings compare correctly because the format is zero-padded.
func (wb *WhereBuilder) AddDateRange(column, from, to string) *WhereBuilder {
	if from != "" {
		wb.Add(column+" >= ?", from)
	}
	if to != "" {
		wb.Add(column+" <= ?", to)
	}
	return wb
}

// AddRange bounds a numeric column inclusively. Nil bounds are skipped.
func (wb *WhereBuilder) AddRange(column string, minVal, maxVal *float64) *WhereBuilder {
	if minVal != nil {
		wb.Add(column+" >= ?", *minVal)
	}
	if maxVal != nil {
		wb.Add(column+" <= ?", *maxVal)
	}
	return wb
}

// AddIn adds "column IN (?, ...)". An empty list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []any) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return wb.Add(column+" IN ("+placeholders+")", values...)
}

// AddNonEmpty keeps rows where a nullable text column has a value.
func (wb *WhereBuilder) AddNonEmpty(column string) *WhereBuilder {
	return wb.Add("COALESCE(" + column + ", '') <> ''")
}

// AddEmpty keeps rows where a nullable text column is NULL or ''.
func (wb *WhereBuilder) AddEmpty(column string) *WhereBuilder {
	return wb.Add("COALESCE(" + column + ", '') = ''")
}

// Build returns the clauses joined with AND, or "1=1" when there are none.
func (wb *WhereBuilder) Build() (string, []any) {
	if wb.IsEmpty() {
		return "1=1", []any{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []any) {
	where, args := wb.Build()
	return "WHERE " + where, args
}

// IsEmpty reports whether no condition has been added. Skipped optional
// filters (empty bounds, empty IN lists) do not count.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
