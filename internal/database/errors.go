// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package database

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ClassifiedError is a SQL failure translated into an HTTP status and a
// message that is safe to show to clients.
type ClassifiedError struct {
	Status  int
	Message string
	// Kind is a short label for metrics and logs.
	Kind string
	Err  error
}

func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a driver error onto the API error taxonomy:
//
//	FOREIGN KEY constraint failed  -> 400
//	NOT NULL constraint failed     -> 400, naming the column
//	UNIQUE constraint failed       -> 409
//	datatype mismatch              -> 400
//	no such column / anything else -> 500
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return &ClassifiedError{Status: http.StatusNotFound, Message: "Not found", Kind: "not_found", Err: err}
	}

	msg := err.Error()
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return foreignKeyError(err)
		case sqlite3.ErrConstraintNotNull:
			return notNullError(err, msg)
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return uniqueError(err)
		}
		if sqliteErr.Code == sqlite3.ErrMismatch {
			return mismatchError(err)
		}
	}

	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyError(err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return notNullError(err, msg)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueError(err)
	case strings.Contains(msg, "datatype mismatch"):
		return mismatchError(err)
	case strings.Contains(msg, "no such column"):
		return &ClassifiedError{Status: http.StatusInternalServerError, Message: "Internal server error", Kind: "no_such_column", Err: err}
	default:
		return &ClassifiedError{Status: http.StatusInternalServerError, Message: "Internal server error", Kind: "other", Err: err}
	}
}

func foreignKeyError(err error) *ClassifiedError {
	return &ClassifiedError{Status: http.StatusBadRequest, Message: "Referenced record does not exist", Kind: "foreign_key", Err: err}
}

func uniqueError(err error) *ClassifiedError {
	return &ClassifiedError{Status: http.StatusConflict, Message: "Record already exists", Kind: "unique", Err: err}
}

func mismatchError(err error) *ClassifiedError {
	return &ClassifiedError{Status: http.StatusBadRequest, Message: "Invalid data type", Kind: "datatype_mismatch", Err: err}
}

// notNullError extracts the column from "NOT NULL constraint failed: table.column".
func notNullError(err error, msg string) *ClassifiedError {
	column := ""
	if i := strings.LastIndex(msg, "NOT NULL constraint failed:"); i >= 0 {
		column = strings.TrimSpace(msg[i+len("NOT NULL constraint failed:"):])
		if dot := strings.LastIndex(column, "."); dot >= 0 {
			column = column[dot+1:]
		}
	}
	message := "Missing required field"
	if column != "" {
		message += ": " + column
	}
	return &ClassifiedError{Status: http.StatusBadRequest, Message: message, Kind: "not_null", Err: err}
}
