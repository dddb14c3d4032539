// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

/*
Command server runs the WEAM API and serves the built single-page client.

Startup order:

 1. Configuration: defaults, then config.yaml (CONFIG_PATH), then .env and
    environment variables (koanf)
 2. Logging: zerolog level and format from the configuration
 3. Database: open the SQLite file and verify the schema; a missing table or
    column is fatal
 4. Auth: token manager, cookie manager, revocation store (memory or badger)
    and the casbin field policy
 5. Supervisor tree: HTTP server in the api layer, revocation sweeper in the
    data layer

Any failure before the supervisor starts exits with status 1. SIGINT and
SIGTERM stop the tree; in-flight requests get SHUTDOWN_TIMEOUT to finish.

Example:

	export JWT_SECRET=$(openssl rand -base64 48)
	export DATABASE_FILE=/var/lib/weam/weam.db
	export CLIENT_ORIGINS=https://weam.example.com
	./server
*/
package main
