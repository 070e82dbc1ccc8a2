// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
database_schema.go - Database Schema Management

Tables:
  - crawl_logs: append-only raw brand responses, one row per successful fetch
  - showtimes: canonical schedule rows keyed by (brand, theater, screen, start_time)
  - runs: run history, also the stop channel read by the coordinator
  - theater_registry: read-only theater directory used for region lookup,
    replaced per brand as a whole (no key, deduplicated on write)

Timestamps are stored as TIMESTAMP holding UTC instants. Readers convert to
the pipeline's local zone. showtimes.raw_log_id is a plain nullable column
with no foreign key, so purging old crawl logs never touches schedule rows.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// schemaMigrations lists every schema version, append-only. Released
// versions are never edited; changes go into a new version.
func schemaMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "initial_tables",
			Statements: []string{
				`CREATE SEQUENCE IF NOT EXISTS crawl_logs_id_seq START 1;`,

				`CREATE TABLE IF NOT EXISTS crawl_logs (
					id BIGINT PRIMARY KEY DEFAULT nextval('crawl_logs_id_seq'),
					brand TEXT NOT NULL,
					query_date TEXT NOT NULL,
					theater_id TEXT NOT NULL,
					theater_display_name TEXT NOT NULL,
					response_payload TEXT NOT NULL,
					status TEXT NOT NULL,
					run_id TEXT,
					created_at TIMESTAMP NOT NULL
				);`,

				`CREATE TABLE IF NOT EXISTS showtimes (
					brand TEXT NOT NULL,
					theater TEXT NOT NULL,
					screen TEXT NOT NULL,
					start_time TIMESTAMP NOT NULL,
					end_time TIMESTAMP,
					movie_title TEXT NOT NULL,
					tags TEXT NOT NULL DEFAULT '[]',
					is_booking_available BOOLEAN NOT NULL DEFAULT false,
					total_seats INTEGER NOT NULL DEFAULT 0,
					remaining_seats INTEGER NOT NULL DEFAULT 0,
					raw_log_id BIGINT,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					PRIMARY KEY (brand, theater, screen, start_time)
				);`,

				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					status TEXT NOT NULL,
					trigger_type TEXT NOT NULL,
					triggered_by TEXT NOT NULL DEFAULT '',
					source_run_id TEXT,
					configuration TEXT NOT NULL,
					result_summary TEXT,
					error_message TEXT,
					artifact_path TEXT,
					created_at TIMESTAMP NOT NULL,
					started_at TIMESTAMP,
					finished_at TIMESTAMP
				);`,

				`CREATE TABLE IF NOT EXISTS theater_registry (
					brand_key TEXT NOT NULL,
					display_name TEXT NOT NULL,
					excel_alias TEXT NOT NULL DEFAULT '',
					region_code TEXT NOT NULL DEFAULT ''
				);`,
			},
		},
		{
			Version: 2,
			Name:    "lookup_indexes",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_crawl_logs_run ON crawl_logs(run_id);`,
				`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
			},
		},
	}
}
