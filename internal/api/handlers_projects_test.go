// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/tomtom215/weam/internal/models"
	"github.com/tomtom215/weam/internal/testinfra"
)

func TestCreateProject_Admin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	admin := env.login(t, "admin", "admin-pass")

	resp, body := env.do(t, admin, http.MethodPost, "/api/projects",
		map[string]any{"contractor": "Acme", "project": "Tower"})
	expectStatus(t, resp, body, http.StatusCreated)

	p := decode[models.Project](t, body)
	if p.Name != "Acme / Tower" {
		t.Errorf("name = %q, want %q", p.Name, "Acme / Tower")
	}
	if p.RemainderCalc != 0 {
		t.Errorf("remainder_calc = %v, want 0", p.RemainderCalc)
	}
	if p.ID == 0 {
		t.Error("id not set")
	}
}

func TestCreateProject_CoercesInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	admin := env.login(t, "admin", "admin-pass")

	resp, body := env.do(t, admin, http.MethodPost, "/api/projects", map[string]any{
		"contractor": "  Acme  ",
		"project":    "Tower",
		"direction":  models.DirectionReceivable,
		"amount":     "1500.5",
		"progress":   150,
		"user_id":    env.aliceID,
		"name":       "ignored",
		"unknown":    true,
	})
	expectStatus(t, resp, body, http.StatusCreated)

	p := decode[models.Project](t, body)
	if p.Contractor != "Acme" || p.Amount != 1500.5 || p.Progress != 100 {
		t.Errorf("project = %+v", p)
	}
	if p.UserID == nil || *p.UserID != env.aliceID {
		t.Errorf("user_id = %v, want %d", p.UserID, env.aliceID)
	}
	if p.RemainderCalc != 1500.5 {
		t.Errorf("remainder_calc = %v, want 1500.5", p.RemainderCalc)
	}
}

func TestCreateProject_Rejections(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	admin := env.login(t, "admin", "admin-pass")
	alice := env.login(t, "alice", "alice-pass")

	tests := []struct {
		name   string
		client *http.Client
		body   map[string]any
		status int
		msg    string
	}{
		{"non-admin", alice, map[string]any{"contractor": "A", "project": "B"}, http.StatusForbidden, "Forbidden"},
		{"missing project", admin, map[string]any{"contractor": "A"}, http.StatusBadRequest, "Missing required field: project"},
		{"bad date", admin, map[string]any{"contractor": "A", "project": "B", "start": "2024-02-30"}, http.StatusBadRequest, "Invalid date format for start, expected YYYY-MM-DD"},
		{"overlong date", admin, map[string]any{"contractor": "A", "project": "B", "start": "2024-01-019"}, http.StatusBadRequest, "Invalid date format for start, expected YYYY-MM-DD"},
		{"date with suffix", admin, map[string]any{"contractor": "A", "project": "B", "end": "2024-12-31garbage"}, http.StatusBadRequest, "Invalid date format for end, expected YYYY-MM-DD"},
		{"bad direction", admin, map[string]any{"contractor": "A", "project": "B", "direction": "sideways"}, http.StatusBadRequest, "Invalid direction"},
		{"unknown owner", admin, map[string]any{"contractor": "A", "project": "B", "user_id": 9999}, http.StatusBadRequest, "Referenced record does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.client, http.MethodPost, "/api/projects", tt.body)
			expectStatus(t, resp, body, tt.status)
			if msg := errorMessage(t, body); msg != tt.msg {
				t.Errorf("error = %q, want %q", msg, tt.msg)
			}
		})
	}
}

func TestUpdateProject_OwnerMayOnlyMoveBoardFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	id := testinfra.SeedProject(t, env.db.Conn(), testinfra.ProjectSeed{
		Contractor: "Acme", Project: "Tower", Direction: models.DirectionReceivable,
		Amount: 1000, Status: "new", UserID: testinfra.Int64(env.aliceID),
	})
	alice := env.login(t, "alice", "alice-pass")

	resp, body := env.do(t, alice, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), map[string]any{
		"status":     "done",
		"progress":   150,
		"start":      "2024-01-01",
		"end":        "2024-06-30",
		"amount":     1,
		"contractor": "Evil",
		"user_id":    env.bobID,
	})
	expectStatus(t, resp, body, http.StatusOK)

	p := decode[models.Project](t, body)
	if p.Status != "done" || p.Progress != 100 || p.Start != "2024-01-01" || p.End != "2024-06-30" {
		t.Errorf("board fields not applied: %+v", p)
	}
	if p.Amount != 1000 || p.Contractor != "Acme" || p.Name != "Acme / Tower" {
		t.Errorf("protected fields changed: %+v", p)
	}
	if p.UserID == nil || *p.UserID != env.aliceID {
		t.Errorf("ownership changed to %v", p.UserID)
	}
}

func TestUpdateProject_OtherUserForbidden(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	id := testinfra.SeedProject(t, env.db.Conn(), testinfra.ProjectSeed{
		Contractor: "Acme", Project: "Tower", UserID: testinfra.Int64(env.aliceID),
	})
	bob := env.login(t, "bob", "bob-pass")

	resp, body := env.do(t, bob, http.MethodPut, fmt.Sprintf("/api/projects/%d", id), map[string]any{"status": "done"})
	expectStatus(t, resp, body, http.StatusForbidden)

	resp, body = env.do(t, bob, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil)
	expectStatus(t, resp, body, http.StatusForbidden)
}

func TestUpdateProject_AdminRenamesProject(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	admin := env.login(t, "admin", "admin-pass")

	resp, body := env.do(t, admin, http.MethodPost, "/api/projects", map[string]any{"contractor": "A", "project": "B"})
	expectStatus(t, resp, body, http.StatusCreated)
	created := decode[models.Project](t, body)
	if created.Name != "A / B" {
		t.Fatalf("name = %q", created.Name)
	}

	resp, body = env.do(t, admin, http.MethodPut, fmt.Sprintf("/api/projects/%d", created.ID), map[string]any{"contractor": "C"})
	expectStatus(t, resp, body, http.StatusOK)
	if p := decode[models.Project](t, body); p.Name != "C / B" {
		t.Errorf("name = %q, want %q", p.Name, "C / B")
	}

	resp, body = env.do(t, admin, http.MethodPut, fmt.Sprintf("/api/projects/%d", created.ID), map[string]any{"project": ""})
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.do(t, admin, http.MethodPut, "/api/projects/9999", map[string]any{"status": "x"})
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestListProjects_Scoping(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	conn := env.db.Conn()
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "A", Project: "1", Status: "new", UserID: testinfra.Int64(env.aliceID)})
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "A", Project: "2", Status: "done", UserID: testinfra.Int64(env.aliceID)})
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "B", Project: "3", Status: "new", UserID: testinfra.Int64(env.bobID)})

	admin := env.login(t, "admin", "admin-pass")
	alice := env.login(t, "alice", "alice-pass")

	tests := []struct {
		name   string
		client *http.Client
		query  string
		want   int
	}{
		{"admin sees all", admin, "", 3},
		{"admin filters by owner", admin, fmt.Sprintf("?user_id=%d", env.bobID), 1},
		{"admin filters by status", admin, "?status=new", 2},
		{"user sees own", alice, "", 2},
		{"user cannot widen scope", alice, fmt.Sprintf("?user_id=%d", env.bobID), 2},
		{"user filters by status", alice, "?status=done", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.client, http.MethodGet, "/api/projects"+tt.query, nil)
			expectStatus(t, resp, body, http.StatusOK)
			if got := len(decode[[]models.Project](t, body)); got != tt.want {
				t.Errorf("got %d projects, want %d", got, tt.want)
			}
		})
	}

	resp, body := env.do(t, admin, http.MethodGet, "/api/projects?user_id=abc", nil)
	expectStatus(t, resp, body, http.StatusBadRequest)
}

func TestProjectsByName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	conn := env.db.Conn()
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "Acme", Project: "Tower", UserID: testinfra.Int64(env.aliceID)})
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "Acme", Project: "Tower"})
	testinfra.SeedProject(t, conn, testinfra.ProjectSeed{Contractor: "Acme", Project: "Bridge"})

	path := "/api/projects/by-name/" + url.PathEscape("Acme / Tower")

	resp, body := env.do(t, env.login(t, "admin", "admin-pass"), http.MethodGet, path, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := len(decode[[]models.Project](t, body)); got != 2 {
		t.Errorf("admin got %d sections, want 2", got)
	}

	resp, body = env.do(t, env.login(t, "alice", "alice-pass"), http.MethodGet, path, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := len(decode[[]models.Project](t, body)); got != 1 {
		t.Errorf("alice got %d sections, want 1", got)
	}
}

func TestDeleteProject(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	id := testinfra.SeedProject(t, env.db.Conn(), testinfra.ProjectSeed{Contractor: "A", Project: "B", UserID: testinfra.Int64(env.aliceID)})
	testinfra.SeedTransaction(t, env.db.Conn(), id, "2024-01-01", 10, models.OperationIncome)
	path := fmt.Sprintf("/api/projects/%d", id)

	resp, body := env.do(t, env.login(t, "alice", "alice-pass"), http.MethodDelete, path, nil)
	expectStatus(t, resp, body, http.StatusForbidden)

	admin := env.login(t, "admin", "admin-pass")
	resp, body = env.do(t, admin, http.MethodDelete, path, nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = env.do(t, admin, http.MethodDelete, path, nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = env.do(t, admin, http.MethodGet, "/api/transactions", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := len(decode[[]models.Transaction](t, body)); got != 0 {
		t.Errorf("transactions survived project delete: %d", got)
	}
}
