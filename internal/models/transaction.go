// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package models

// Operation types.
const (
	OperationIncome  = "Доход"
	OperationExpense = "Расход"
)

// Transaction is a payment against a project. An empty Date marks a planned
// (forecast) row; a non-empty Date marks an actual one.
type Transaction struct {
	ID            int64    `json:"id"`
	Responsible   string   `json:"responsible"`
	Date          string   `json:"date"`
	Total         float64  `json:"total"`
	OperationType string   `json:"operationType"`
	Note          string   `json:"note"`
	ProjectID     int64    `json:"project_id"`
	ProjectName   string   `json:"project_name,omitempty"`
	Remainder     *float64 `json:"remainder,omitempty"`
}

// IsPlanned reports whether the transaction is a forecast row.
func (t *Transaction) IsPlanned() bool {
	return t.Date == ""
}

// Values for TransactionFilter.Plan.
const (
	PlanAll    = "all"
	PlanActual = "actual"
	PlanPlan   = "plan"
)

// TransactionFilter narrows transaction queries. Zero values mean no filter.
type TransactionFilter struct {
	From          string
	To            string
	OperationType string
	Plan          string
	ProjectID     *int64
	// OwnerID restricts results to projects owned by this user.
	OwnerID     *int64
	MinTotal    *float64
	MaxTotal    *float64
	Responsible string
	Limit       int
}
