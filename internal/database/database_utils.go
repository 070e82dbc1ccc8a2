// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/showtimes/internal/metrics"
)

// RecordCounts summarizes table sizes for readiness reporting.
type RecordCounts struct {
	CrawlLogs int64 `json:"crawl_logs"`
	Showtimes int64 `json:"showtimes"`
	Runs      int64 `json:"runs"`
	Theaters  int64 `json:"theaters"`
}

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetDatabasePath returns the path to the database file
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// GetRecordCounts returns the count of records in the main tables
func (db *DB) GetRecordCounts(ctx context.Context) (*RecordCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	counts := &RecordCounts{}
	err := db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM crawl_logs),
		(SELECT COUNT(*) FROM showtimes),
		(SELECT COUNT(*) FROM runs),
		(SELECT COUNT(*) FROM theater_registry)`).
		Scan(&counts.CrawlLogs, &counts.Showtimes, &counts.Runs, &counts.Theaters)
	metrics.RecordDBQuery("SELECT", "all", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return counts, nil
}
