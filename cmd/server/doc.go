// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Command server runs the Showtimes ingestion service.

It opens the DuckDB store, marks runs left active by a previous process as
FAILED, optionally seeds the theater registry, and starts a supervisor tree
with the run coordinator, the optional cron scheduler and the HTTP API.

# Configuration

Configuration is layered: built-in defaults, then an optional YAML file
(CONFIG_PATH, ./config.yaml or /etc/showtimes/config.yaml), then environment
variables. Commonly set variables:

	DUCKDB_PATH            database file (default /data/showtimes.duckdb)
	EXPORT_DIR             artifact directory (default /data/artifacts)
	PIPELINE_TIMEZONE      IANA zone for dates and times (default Asia/Seoul)
	FETCH_WORKERS          concurrent theaters per brand (default 6)
	BRAND_A_BASE_URL       brand A schedule endpoint
	BRAND_B_API_URL        brand B schedule API
	BRAND_B_SIGNING_KEY    brand B request signing key
	BRAND_C_BASE_URL       brand C schedule endpoint
	REGISTRY_SEED_FILE     YAML theater registry loaded at startup
	SCHEDULE_ENABLED       enable the daily scheduled run
	SCHEDULE_CRON          cron expression (default "0 6 * * *")
	EXPORT_S3_ENABLED      upload artifacts to S3-compatible storage
	HTTP_PORT              API port (default 8080)
	LOG_LEVEL, LOG_FORMAT  zerolog level and json|console output

# Signals

SIGINT and SIGTERM stop the supervisor tree. In-flight runs are given
HTTP_SHUTDOWN_TIMEOUT to finish and are then recorded as FAILED.
*/
package main
