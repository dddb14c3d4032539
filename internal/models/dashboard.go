// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package models

// DashboardFilter selects the rows the dashboard aggregates.
type DashboardFilter struct {
	From      string
	To        string
	UserID    *int64
	ProjectID *int64
}

// DashboardRow is one transaction joined with the project fields the
// dashboard groups by.
type DashboardRow struct {
	ProjectID     int64
	ProjectName   string
	Contractor    string
	Date          string
	Total         float64
	OperationType string
}

// DashboardSummary holds the headline figures. Profitability is profit as a
// percentage of income, 0 when there is no income.
type DashboardSummary struct {
	Income         float64 `json:"income"`
	Expense        float64 `json:"expense"`
	Profit         float64 `json:"profit"`
	Profitability  float64 `json:"profitability"`
	PlannedIncome  float64 `json:"planned_income"`
	PlannedExpense float64 `json:"planned_expense"`
	PlannedProfit  float64 `json:"planned_profit"`
}

// DashboardDay is one calendar date with running totals since the start of
// the range.
type DashboardDay struct {
	Date              string  `json:"date"`
	Income            float64 `json:"income"`
	Expense           float64 `json:"expense"`
	Profit            float64 `json:"profit"`
	CumulativeIncome  float64 `json:"cumulative_income"`
	CumulativeExpense float64 `json:"cumulative_expense"`
	CumulativeProfit  float64 `json:"cumulative_profit"`
}

// RankingEntry is one line of a top-10 list.
type RankingEntry struct {
	Name      string  `json:"name"`
	ProjectID int64   `json:"project_id,omitempty"`
	Total     float64 `json:"total"`
}

// Dashboard is the GET /api/dashboard response.
type Dashboard struct {
	Summary               DashboardSummary `json:"summary"`
	Daily                 []DashboardDay   `json:"daily"`
	TopIncomeClients      []RankingEntry   `json:"top_income_clients"`
	TopExpenseContractors []RankingEntry   `json:"top_expense_contractors"`
	TopProfitProjects     []RankingEntry   `json:"top_profit_projects"`
}
