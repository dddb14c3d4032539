// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/weam/internal/auth"
	"github.com/tomtom215/weam/internal/authz"
	"github.com/tomtom215/weam/internal/models"
)

// ListProjects returns projects. Admins see everything and may filter by
// user_id; everyone else sees only the projects they own. status and
// direction filter for both.
//
// Method: GET
// Path: /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	p := auth.UserFromContext(r.Context())
	q := r.URL.Query()
	filter := models.ProjectFilter{
		Status:    clampString(q.Get("status"), h.cfg.Limits.MaxTextLength),
		Direction: clampString(q.Get("direction"), h.cfg.Limits.MaxTextLength),
	}

	if p.IsAdmin() {
		userID, err := queryID(r, "user_id")
		if err != nil {
			respondInputError(w, r, err)
			return
		}
		filter.UserID = userID
	} else {
		filter.UserID = &p.ID
	}

	projects, err := h.db.ListProjects(r.Context(), filter)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// GetProject returns one project to its owner or an admin.
//
// Method: GET
// Path: /api/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	project, err := h.db.GetProject(r.Context(), id)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() && !p.Owns(project.UserID) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ProjectsByName returns every section of the contract "<contractor> /
// <project>". The name must be URL-escaped.
//
// Method: GET
// Path: /api/projects/by-name/{name}
func (h *Handler) ProjectsByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(pathString(r, "name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: name")
		return
	}

	var owner *int64
	if p := auth.UserFromContext(r.Context()); !p.IsAdmin() {
		owner = &p.ID
	}
	projects, err := h.db.ProjectsByName(r.Context(), name, owner)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject inserts a project. Admin only. The response carries the
// derived name and remainder_calc.
//
// Method: POST
// Path: /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	p := auth.UserFromContext(r.Context())
	values, err := h.normalizePatch(projectFieldKinds, h.policy.Apply(p.Role, authz.ResourceProjects, patch))
	if err != nil {
		respondInputError(w, r, err)
		return
	}
	for _, key := range []string{"contractor", "project"} {
		if s, _ := values[key].(string); s == "" {
			writeError(w, http.StatusBadRequest, "Missing required field: "+key)
			return
		}
	}

	created, err := h.db.CreateProject(r.Context(), projectFromValues(values))
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// projectFromValues builds a project from a normalized patch.
func projectFromValues(values map[string]any) *models.Project {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}
	project := &models.Project{
		Contractor: str("contractor"),
		Project:    str("project"),
		Section:    str("section"),
		Direction:  str("direction"),
		Grouping:   str("grouping"),
		Note:       str("note"),
		Start:      str("start"),
		End:        str("end"),
		Status:     str("status"),
	}
	if v, ok := values["amount"].(float64); ok {
		project.Amount = v
	}
	if v, ok := values["progress"].(int); ok {
		project.Progress = v
	}
	if v, ok := values["user_id"].(int64); ok {
		project.UserID = &v
	}
	return project
}

// UpdateProject patches a project. Admins may write every field; the owner
// may move it on the board and the timeline (status, start, end, progress).
// Fields the caller may not write are dropped silently. Other users get 403.
//
// Method: PUT
// Path: /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	owner, err := h.db.ProjectOwner(r.Context(), id)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	p := auth.UserFromContext(r.Context())
	if !p.IsAdmin() && !p.Owns(owner) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}
	values, err := h.normalizePatch(projectFieldKinds, h.policy.Apply(p.Role, authz.ResourceProjects, patch))
	if err == nil {
		err = requireText(values, "contractor", "project")
	}
	if err != nil {
		respondInputError(w, r, err)
		return
	}

	updated, err := h.db.UpdateProject(r.Context(), id, values)
	if err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProject removes a project and its transactions. Admin only.
//
// Method: DELETE
// Path: /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteProject(r.Context(), id); err != nil {
		respondDBError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody)
}
