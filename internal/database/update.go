// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package database

import (
	"sort"
	"strings"
)

// buildUpdate renders "UPDATE table SET a = ?, b = ? WHERE id = ?" for the
// keys of values that appear in columns. Keys outside columns are ignored, so
// callers may pass an already-filtered patch without re-checking it. Column
// names are always quoted because "end" and "grouping" are keywords.
func buildUpdate(table string, columns map[string]bool, values map[string]any, id int64) (string, []any, bool) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if columns[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", nil, false
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, quoteIdent(k)+" = ?")
		args = append(args, values[k])
	}
	args = append(args, id)
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?", args, true
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
