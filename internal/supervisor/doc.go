// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

/*
Package supervisor runs the server's long-lived goroutines under a suture
supervisor tree.

Tree layout:

	weam (root)
	├── data-layer   revocation sweeper
	└── api-layer    HTTP server

A service that returns an error is restarted with backoff. Canceling the
context passed to Serve or ServeBackground stops every layer; services that
do not return within ShutdownTimeout are listed by UnstoppedServiceReport.

Service wrappers live in the services subpackage.
*/
package supervisor
