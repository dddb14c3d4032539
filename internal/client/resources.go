// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/weam/internal/models"
)

// Fields is a partial record for create and update calls. Keys the
// caller's role may not write are dropped by the server.
type Fields map[string]any

// Login starts a session and returns the logged-in user.
func (c *Client) Login(ctx context.Context, login, password string) (*models.User, error) {
	var out models.UserResponse
	in := map[string]string{"login": login, "password": password}
	if err := c.Do(ctx, http.MethodPost, loginPath, in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the session. It succeeds without a session too.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Me returns the current user, or nil without a valid session.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.UserResponse
	if err := c.Do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Projects lists projects visible to the current user.
func (c *Client) Projects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	q := url.Values{}
	setID(q, "user_id", filter.UserID)
	setString(q, "status", filter.Status)
	setString(q, "direction", filter.Direction)

	var out []models.Project
	if err := c.Do(ctx, http.MethodGet, withQuery("/api/projects", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject creates a project (admin only).
func (c *Client) CreateProject(ctx context.Context, fields Fields) (*models.Project, error) {
	var out models.Project
	if err := c.Do(ctx, http.MethodPost, "/api/projects", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject applies a partial update and returns the stored project.
func (c *Client) UpdateProject(ctx context.Context, id int64, fields Fields) (*models.Project, error) {
	var out models.Project
	path := "/api/projects/" + strconv.FormatInt(id, 10)
	if err := c.Do(ctx, http.MethodPut, path, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProjectField updates a single field, as the board and timeline views
// do when a card is dragged. While an update of the same project field is
// outstanding, further calls fail fast with ErrUpdateInFlight.
func (c *Client) UpdateProjectField(ctx context.Context, id int64, field string, value any) (*models.Project, error) {
	key := fmt.Sprintf("%d:%s", id, field)
	if _, busy := c.inFlight.LoadOrStore(key, struct{}{}); busy {
		return nil, ErrUpdateInFlight
	}
	defer c.inFlight.Delete(key)

	return c.UpdateProject(ctx, id, Fields{field: value})
}

// Transactions lists transactions, optionally for one project.
func (c *Client) Transactions(ctx context.Context, projectID *int64) ([]models.Transaction, error) {
	q := url.Values{}
	setID(q, "project_id", projectID)

	var out []models.Transaction
	if err := c.Do(ctx, http.MethodGet, withQuery("/api/transactions", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransactionQuery mirrors the /api/transactions/query parameters. Zero
// values are omitted.
type TransactionQuery struct {
	From          string
	To            string
	OperationType string
	Plan          string
	ProjectID     *int64
	Min           *float64
	Max           *float64
	Responsible   string
	Limit         int
}

func (q TransactionQuery) values() url.Values {
	v := url.Values{}
	setString(v, "from", q.From)
	setString(v, "to", q.To)
	setString(v, "op", q.OperationType)
	setString(v, "plan", q.Plan)
	setID(v, "project_id", q.ProjectID)
	if q.Min != nil {
		v.Set("min", strconv.FormatFloat(*q.Min, 'f', -1, 64))
	}
	if q.Max != nil {
		v.Set("max", strconv.FormatFloat(*q.Max, 'f', -1, 64))
	}
	setString(v, "responsible", q.Responsible)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// QueryTransactions runs a filtered transaction search.
func (c *Client) QueryTransactions(ctx context.Context, query TransactionQuery) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := c.Do(ctx, http.MethodGet, withQuery("/api/transactions/query", query.values()), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DashboardQuery selects the dashboard range and scope.
type DashboardQuery struct {
	From      string
	To        string
	UserID    *int64
	ProjectID *int64
}

// Dashboard fetches the aggregated dashboard.
func (c *Client) Dashboard(ctx context.Context, query DashboardQuery) (*models.Dashboard, error) {
	q := url.Values{}
	setString(q, "from", query.From)
	setString(q, "to", query.To)
	setID(q, "user_id", query.UserID)
	setID(q, "project_id", query.ProjectID)

	var out models.Dashboard
	if err := c.Do(ctx, http.MethodGet, withQuery("/api/dashboard", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setID(q url.Values, key string, id *int64) {
	if id != nil {
		q.Set(key, strconv.FormatInt(*id, 10))
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
