// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/models"
)

const rankingSize = 10

var hundred = decimal.NewFromInt(100)

// Dashboard aggregates actual and planned transactions into the summary
// cards, the daily cumulative chart and the top-10 rankings.
//
// Method: GET
// Path: /api/dashboard
//
// Query Parameters:
//   - from, to: YYYY-MM-DD range for actual rows; planned rows ignore it
//   - user_id: project owner (admins only; users always see their own)
//   - project_id: single project
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDashboardFilter(r)
	if err != nil {
		respondInputError(w, r, err)
		return
	}
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() {
		filter.UserID = &p.ID
	}

	// Both queries share ctx so one failure cancels the other. The pool has a
	// single connection, so they still run back to back.
	var actual, planned []models.DashboardRow
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		rows, err := h.db.DashboardRows(ctx, filter, false)
		actual = rows
		return err
	})
	g.Go(func() error {
		rows, err := h.db.DashboardRows(ctx, filter, true)
		planned = rows
		return err
	})
	if err := g.Wait(); err != nil {
		respondDBError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, buildDashboard(actual, planned))
}

func parseDashboardFilter(r *http.Request) (models.DashboardFilter, error) {
	var filter models.DashboardFilter
	var err error
	if filter.From, err = queryDate(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		return filter, err
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return filter, badRequest("from must not be after to")
	}
	if filter.UserID, err = queryID(r, "user_id"); err != nil {
		return filter, err
	}
	if filter.ProjectID, err = queryID(r, "project_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

type flow struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

func (f *flow) add(operationType string, amount decimal.Decimal) {
	switch operationType {
	case models.OperationIncome:
		f.income = f.income.Add(amount)
	case models.OperationExpense:
		f.expense = f.expense.Add(amount)
	}
}

func (f *flow) profit() decimal.Decimal {
	return f.income.Sub(f.expense)
}

type projectFlow struct {
	name string
	flow
}

// buildDashboard is pure aggregation over already-fetched rows. Sums are
// kept in decimal so that many small amounts do not drift.
func buildDashboard(actual, planned []models.DashboardRow) models.Dashboard {
	var totals, plan flow
	days := make(map[string]*flow)
	clients := make(map[string]decimal.Decimal)
	contractors := make(map[string]decimal.Decimal)
	projects := make(map[int64]*projectFlow)

	for _, row := range actual {
		amount := decimal.NewFromFloat(row.Total)
		totals.add(row.OperationType, amount)

		day, ok := days[row.Date]
		if !ok {
			day = &flow{}
			days[row.Date] = day
		}
		day.add(row.OperationType, amount)

		pf, ok := projects[row.ProjectID]
		if !ok {
			pf = &projectFlow{name: row.ProjectName}
			projects[row.ProjectID] = pf
		}
		pf.add(row.OperationType, amount)

		switch row.OperationType {
		case models.OperationIncome:
			clients[row.Contractor] = clients[row.Contractor].Add(amount)
		case models.OperationExpense:
			contractors[row.Contractor] = contractors[row.Contractor].Add(amount)
		}
	}
	for _, row := range planned {
		plan.add(row.OperationType, decimal.NewFromFloat(row.Total))
	}

	return models.Dashboard{
		Summary:               summarize(&totals, &plan),
		Daily:                 dailySeries(days),
		TopIncomeClients:      rankByName(clients),
		TopExpenseContractors: rankByName(contractors),
		TopProfitProjects:     rankProjects(projects),
	}
}

func summarize(totals, plan *flow) models.DashboardSummary {
	profitability := decimal.Zero
	if !totals.income.IsZero() {
		profitability = totals.profit().Div(totals.income).Mul(hundred).Round(2)
	}
	return models.DashboardSummary{
		Income:         totals.income.InexactFloat64(),
		Expense:        totals.expense.InexactFloat64(),
		Profit:         totals.profit().InexactFloat64(),
		Profitability:  profitability.InexactFloat64(),
		PlannedIncome:  plan.income.InexactFloat64(),
		PlannedExpense: plan.expense.InexactFloat64(),
		PlannedProfit:  plan.profit().InexactFloat64(),
	}
}

// dailySeries orders the day buckets by date and adds running totals.
func dailySeries(days map[string]*flow) []models.DashboardDay {
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]models.DashboardDay, 0, len(dates))
	var running flow
	for _, d := range dates {
		day := days[d]
		running.income = running.income.Add(day.income)
		running.expense = running.expense.Add(day.expense)
		out = append(out, models.DashboardDay{
			Date:              d,
			Income:            day.income.InexactFloat64(),
			Expense:           day.expense.InexactFloat64(),
			Profit:            day.profit().InexactFloat64(),
			CumulativeIncome:  running.income.InexactFloat64(),
			CumulativeExpense: running.expense.InexactFloat64(),
			CumulativeProfit:  running.profit().InexactFloat64(),
		})
	}
	return out
}

type ranked struct {
	entry models.RankingEntry
	total decimal.Decimal
}

// topN sorts by total descending, then name, and keeps rankingSize entries.
func topN(items []ranked) []models.RankingEntry {
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].total.Cmp(items[j].total); c != 0 {
			return c > 0
		}
		if items[i].entry.Name != items[j].entry.Name {
			return items[i].entry.Name < items[j].entry.Name
		}
		return items[i].entry.ProjectID < items[j].entry.ProjectID
	})
	if len(items) > rankingSize {
		items = items[:rankingSize]
	}
	out := make([]models.RankingEntry, len(items))
	for i, it := range items {
		out[i] = it.entry
		out[i].Total = it.total.InexactFloat64()
	}
	return out
}

func rankByName(sums map[string]decimal.Decimal) []models.RankingEntry {
	items := make([]ranked, 0, len(sums))
	for name, total := range sums {
		items = append(items, ranked{entry: models.RankingEntry{Name: name}, total: total})
	}
	return topN(items)
}

func rankProjects(projects map[int64]*projectFlow) []models.RankingEntry {
	items := make([]ranked, 0, len(projects))
	for id, pf := range projects {
		items = append(items, ranked{
			entry: models.RankingEntry{Name: pf.name, ProjectID: id},
			total: pf.profit(),
		})
	}
	return topN(items)
}
