// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// InsertCrawlLog appends one raw response. ID and CreatedAt are filled in
// on success. Crawl logs are never updated or deleted by the pipeline.
func (db *DB) InsertCrawlLog(ctx context.Context, log *models.CrawlLog) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if log.Status == "" {
		log.Status = models.CrawlStatusSuccess
	}
	payload := string(log.Payload)
	if payload == "" {
		payload = "null"
	}
	createdAt := time.Now().UTC()

	start := time.Now()
	var id int64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO crawl_logs (
			brand, query_date, theater_id, theater_display_name,
			response_payload, status, run_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		string(log.Brand), log.QueryDate, log.TheaterID, log.TheaterName,
		payload, log.Status, nullString(log.RunID), createdAt,
	).Scan(&id)
	metrics.RecordDBQuery("INSERT", "crawl_logs", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl log: %w", err)
	}

	log.ID = id
	log.CreatedAt = createdAt
	return id, nil
}

// GetCrawlLog returns one crawl log by id.
func (db *DB) GetCrawlLog(ctx context.Context, id int64) (*models.CrawlLog, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		log     models.CrawlLog
		brand   string
		payload string
		runID   sql.NullString
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, brand, query_date, theater_id, theater_display_name,
			response_payload, status, run_id, created_at
		FROM crawl_logs WHERE id = ?`, id,
	).Scan(&log.ID, &brand, &log.QueryDate, &log.TheaterID, &log.TheaterName,
		&payload, &log.Status, &runID, &log.CreatedAt)
	metrics.RecordDBQuery("SELECT", "crawl_logs", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCrawlLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl log %d: %w", id, err)
	}

	log.Brand = models.Brand(brand)
	log.Payload = []byte(payload)
	log.RunID = runID.String
	return &log, nil
}

// ListCrawlLogIDs returns the ids of the successful logs a run captured for
// one brand, oldest first. Callers load payloads one at a time with
// GetCrawlLog so a large run never holds every payload in memory.
func (db *DB) ListCrawlLogIDs(ctx context.Context, runID string, brand models.Brand) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id FROM crawl_logs
		WHERE run_id = ? AND brand = ? AND status = ?
		ORDER BY id`, runID, string(brand), models.CrawlStatusSuccess)
	metrics.RecordDBQuery("SELECT", "crawl_logs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl logs for run %s: %w", runID, err)
	}
	defer closeWithLog(rows, "rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan crawl log id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountCrawlLogs returns the number of logs a run captured per brand.
func (db *DB) CountCrawlLogs(ctx context.Context, runID string) (map[models.Brand]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT brand, COUNT(*) FROM crawl_logs WHERE run_id = ? GROUP BY brand`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count crawl logs for run %s: %w", runID, err)
	}
	defer closeWithLog(rows, "rows")

	counts := make(map[models.Brand]int)
	for rows.Next() {
		var (
			brand string
			n     int
		)
		if err := rows.Scan(&brand, &n); err != nil {
			return nil, fmt.Errorf("failed to scan crawl log count: %w", err)
		}
		counts[models.Brand(brand)] = n
	}
	return counts, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
