// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

// Package database is the DuckDB persistence layer for the ingestion pipeline.
//
// # Architecture
//
//   - database.go: connection lifecycle, pool sizing, checkpoint on close
//   - database_schema.go: tables and indexes
//   - migrations.go: append-only versioned migrations
//   - crawl_logs.go: the append-only raw log store
//   - showtimes.go: the canonical schedule table and its per-log upsert
//   - runs.go: run history, including the atomic stop request
//   - theaters.go: the read-only theater registry
//
// # Concurrency
//
// DuckDB uses optimistic concurrency. UpsertShowtimes runs one transaction
// per crawl log and retries it with exponential backoff when it loses a
// transaction conflict. Run status transitions are single conditional
// UPDATE statements, so RequestStop is atomic with respect to the
// coordinator's own transitions.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	run := &models.Run{Trigger: models.TriggerManual, Configuration: req}
//	if err := db.CreatePendingRun(ctx, run); err != nil {
//	    return err
//	}
package database
