// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package models

// Contract directions.
const (
	DirectionReceivable = "нам должны" // the contractor owes us
	DirectionPayable    = "мы должны"  // we owe the contractor
)

// Project is one section of a contract. Name is derived from Contractor and
// Project; RemainderCalc is computed by every query and never stored.
type Project struct {
	ID            int64   `json:"id"`
	Contractor    string  `json:"contractor"`
	Project       string  `json:"project"`
	Section       string  `json:"section"`
	Direction     string  `json:"direction"`
	Grouping      string  `json:"grouping"`
	Amount        float64 `json:"amount"`
	Note          string  `json:"note"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Status        string  `json:"status"`
	Progress      int     `json:"progress"`
	UserID        *int64  `json:"user_id"`
	Name          string  `json:"name"`
	RemainderCalc float64 `json:"remainder_calc"`
}

// ProjectName builds the display name stored in projects.name.
func ProjectName(contractor, project string) string {
	return contractor + " / " + project
}

// ProjectFilter narrows project listings. Zero values mean no filter.
type ProjectFilter struct {
	UserID    *int64
	Status    string
	Direction string
}
