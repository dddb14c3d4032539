// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

// Command weam-admin manages users and checks the database outside the
// running server. User creation is disabled in the HTTP API, so this is how
// accounts are provisioned.
//
//	weam-admin create-user -login admin -password secret -role admin
//	weam-admin set-password -login admin -password new-secret
//	weam-admin check-schema
//
// It reads the same configuration as the server (CONFIG_PATH, .env and
// environment variables) and exits with status 1 on any failure.
package main

import (
	"fmt"
	"os"
)

func main() {
	registry := NewCommandRegistry()
	registerCommands(registry, &env{load: openFromConfig, out: os.Stdout})

	if err := registry.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func registerCommands(r *CommandRegistry, e *env) {
	r.Register(&Command{
		Name:        "create-user",
		Description: "Create a user account",
		Usage:       "weam-admin create-user -login <login> -password <password> [-role admin|user] [-nickname <name>]",
		Examples: []string{
			"weam-admin create-user -login admin -password secret -role admin",
			"weam-admin create-user -login ivan -password secret -nickname Ivan",
		},
		Run: e.createUser,
	})
	r.Register(&Command{
		Name:        "set-password",
		Description: "Replace a user's password",
		Usage:       "weam-admin set-password -login <login> -password <password>",
		Examples:    []string{"weam-admin set-password -login admin -password new-secret"},
		Run:         e.setPassword,
	})
	r.Register(&Command{
		Name:        "check-schema",
		Description: "Verify that the database has every required table and column",
		Usage:       "weam-admin check-schema",
		Run:         e.checkSchema,
	})
}
