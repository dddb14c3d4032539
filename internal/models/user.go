// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package models

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           int64  `json:"id"`
	Login        string `json:"login"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Nickname     string `json:"nickname"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ResponsiblePerson is the reduced user view used by pickers in the SPA.
type ResponsiblePerson struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Nickname string `json:"nickname"`
}
