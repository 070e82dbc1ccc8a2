// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the API router.

# Available Metrics

Fetch Metrics:
  - fetch_units_total: work units by brand and result (success, failure, abandoned)
  - fetch_unit_duration_seconds: per-unit wall time including retries
  - fetch_retries_total: retried backend requests per brand
  - fetch_discovered_theaters: theaters found by the latest discovery

Transform Metrics:
  - transform_rows_touched_total, transform_item_errors_total
  - transform_log_duration_seconds

Run Metrics:
  - pipeline_runs_started_total, pipeline_runs_finished_total (trigger, status)
  - pipeline_run_duration_seconds, pipeline_runs_active
  - pipeline_scheduled_runs_skipped_total

Export Metrics:
  - export_artifacts_total (kind), export_uploads_total (result)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total (name, result)
  - circuit_breaker_consecutive_failures
  - circuit_breaker_state_transitions_total (name, from_state, to_state)

Database and API Metrics:
  - duckdb_query_duration_seconds, duckdb_query_errors_total
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total
*/
package metrics
