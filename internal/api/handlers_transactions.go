// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/models"
)

// ListTransactions returns transactions, optionally for one project.
// Non-admins only see transactions of projects they own.
//
// Method: GET
// Path: /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryID(r, "project_id")
	if err != nil {
		respondInputError(w, r, err)
		return
	}
	filter := models.TransactionFilter{ProjectID: projectID}
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() {
		filter.OwnerID = &p.ID
	}

	txs, err := h.db.ListTransactions(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// QueryTransactions filters transactions by date range, operation type,
// plan/actual, project, amount range and responsible person.
//
// Method: GET
// Path: /api/transactions/query
//
// Query Parameters:
//   - from, to: YYYY-MM-DD, inclusive
//   - op: income | expense | Доход | Расход
//   - plan: actual | plan | all (default all)
//   - project_id, min, max, responsible
//   - limit: capped at the configured row limit
func (h *Handler) QueryTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseTransactionQuery(r)
	if err != nil {
		respondInputError(w, r, err)
		return
	}
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() {
		filter.OwnerID = &p.ID
	}

	txs, err := h.db.ListTransactions(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) parseTransactionQuery(r *http.Request) (models.TransactionFilter, error) {
	q := r.URL.Query()
	var filter models.TransactionFilter
	var err error

	if filter.From, err = queryDate(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(r, "to"); err != nil {
		return filter, err
	}

	if op := strings.TrimSpace(q.Get("op")); op != "" && !strings.EqualFold(op, "all") {
		normalized, ok := normalizeOperation(op)
		if !ok {
			return filter, badRequest("Invalid op, expected income or expense")
		}
		filter.OperationType = normalized
	}

	switch plan := strings.ToLower(strings.TrimSpace(q.Get("plan"))); plan {
	case "", models.PlanAll:
		filter.Plan = models.PlanAll
	case models.PlanActual, models.PlanPlan:
		filter.Plan = plan
	default:
		return filter, badRequest("Invalid plan, expected actual, plan or all")
	}

	if filter.ProjectID, err = queryID(r, "project_id"); err != nil {
		return filter, err
	}
	if filter.MinTotal, err = queryFloat(r, "min"); err != nil {
		return filter, err
	}
	if filter.MaxTotal, err = queryFloat(r, "max"); err != nil {
		return filter, err
	}
	filter.Responsible = clampString(q.Get("responsible"), h.cfg.Limits.MaxTextLength)

	maxRows := h.cfg.Limits.MaxQueryRows
	filter.Limit = maxRows
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, badRequest("Invalid limit")
		}
		if n > 0 && (maxRows <= 0 || n < maxRows) {
			filter.Limit = n
		}
	}
	return filter, nil
}

// GetTransaction returns one transaction to an admin or the owner of its
// project.
//
// Method: GET
// Path: /api/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() {
		owner, err := h.db.TransactionProjectOwner(r.Context(), id)
		if err != nil {
			respondDBError(w, r, err)
			return
		}
		if !p.Owns(owner) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	tx, err := h.db.GetTransaction(r.Context(), id)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// transactionValues normalizes a transaction patch and drops remainder on
// databases without that column.
func (h *Handler) transactionValues(p *auth.Principal, patch map[string]any) (map[string]any, error) {
	values, err := h.normalizePatch(transactionFieldKinds, h.policy.Apply(p.Role, authz.ResourceTransactions, patch))
	if err != nil {
		return nil, err
	}
	if !h.db.HasTransactionRemainder() {
		delete(values, "remainder")
	}
	return values, nil
}

// CreateTransaction inserts a transaction. Admin only. An empty date makes
// it a planned row; responsible defaults to the caller's login.
//
// Method: POST
// Path: /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	p := auth.UserFromContext(r.Context())
	values, err := h.transactionValues(p, patch)
	if err != nil {
		respondInputError(w, r, err)
		return
	}
	for _, key := range []string{"project_id", "total", "operationType"} {
		if _, ok := values[key]; !ok {
			writeError(w, http.StatusBadRequest, "Missing required field: "+key)
			return
		}
	}

	tx := &models.Transaction{
		ProjectID: values["project_id"].(int64),
		Total:     values["total"].(float64),
	}
	tx.OperationType, _ = values["operationType"].(string)
	tx.Date, _ = values["date"].(string)
	tx.Note, _ = values["note"].(string)
	tx.Responsible, _ = values["responsible"].(string)
	if tx.Responsible == "" {
		tx.Responsible = p.Login
	}
	if v, ok := values["remainder"].(float64); ok {
		tx.Remainder = &v
	}

	created, err := h.db.CreateTransaction(r.Context(), tx)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTransaction patches a transaction. Admin only.
//
// Method: PUT
// Path: /api/transactions/{id}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	values, err := h.transactionValues(auth.UserFromContext(r.Context()), patch)
	if err != nil {
		respondInputError(w, r, err)
		return
	}

	updated, err := h.db.UpdateTransaction(r.Context(), id, values)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTransaction removes a transaction. Admin only.
//
// Method: DELETE
// Path: /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteTransaction(r.Context(), id); err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody)
}
