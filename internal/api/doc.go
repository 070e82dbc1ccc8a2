// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package api provides the HTTP run-control API.

Endpoints:

	POST /api/v1/runs                   start a MANUAL run        201 {run_id, status}
	GET  /api/v1/runs?limit=N           run history, newest first
	GET  /api/v1/runs/{id}              one run with its summary
	POST /api/v1/runs/{id}/stop         request a cooperative stop
	POST /api/v1/runs/{id}/transform    re-process a run's crawl logs
	GET  /api/v1/runs/{id}/artifact     schedule workbook (?kind=failures)
	GET  /api/v1/health/live            liveness
	GET  /api/v1/health/ready           database ping
	GET  /metrics                       Prometheus exposition

The caller may name itself in the X-Actor header; it is stored as the run's
triggered_by and defaults to "api".

Every JSON response uses the same envelope:

	{
	  "success": false,
	  "error": {"code": "NOT_RUNNING", "message": "Run is not running", "request_id": "..."},
	  "meta": {"request_id": "...", "timestamp": "..."}
	}

Error mapping:

  - run not found: 404 NOT_FOUND
  - stop on a run that is not PENDING or RUNNING: 400 NOT_RUNNING
  - invalid run configuration or date range: 400 VALIDATION_FAILED
  - transform of a run that is still active: 409 CONFLICT
  - rate limit exceeded: 429 TOO_MANY_REQUESTS

Handlers never block on a run. Start and transform return as soon as the
PENDING row is written; progress is read back through GET /api/v1/runs/{id}.
*/
package api
