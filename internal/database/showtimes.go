// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// insertChunkSize bounds rows per multi-row INSERT (13 parameters each).
const insertChunkSize = 200

// rowKey identifies a showtime within one (brand, theater) group.
type rowKey struct {
	screen string
	start  int64 // UnixMicro of the UTC instant
}

type groupKey struct {
	brand   models.Brand
	theater string
}

// UpsertShowtimes merges parsed items from one crawl log into the schedule
// table inside a single transaction and returns the number of rows touched
// (updated plus inserted).
//
// Existing rows are looked up per (brand, theater) for the local dates the
// items cover. Matches have their mutable fields overwritten and raw_log_id
// rotated to logID. New keys are inserted with an ON CONFLICT update, so a
// row another writer committed after the lookup still receives this
// observation. A commit that loses to a concurrent insert of the same key is
// retried. Duplicate keys within items resolve to the last occurrence.
func (db *DB) UpsertShowtimes(ctx context.Context, logID int64, items []models.ParsedItem, loc *time.Location) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	items = dedupeItems(items)

	var touched int
	err := db.retryOnConflict(ctx, "upsert_showtimes", func() error {
		n, err := db.doUpsertShowtimes(ctx, logID, items, loc)
		touched = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return touched, nil
}

func (db *DB) doUpsertShowtimes(ctx context.Context, logID int64, items []models.ParsedItem, loc *time.Location) (touched int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("UPSERT", "showtimes", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	groups := make(map[groupKey][]models.ParsedItem)
	var order []groupKey
	for _, it := range items {
		gk := groupKey{brand: it.Brand, theater: it.Theater}
		if _, ok := groups[gk]; !ok {
			order = append(order, gk)
		}
		groups[gk] = append(groups[gk], it)
	}

	var updates, creates []models.ParsedItem
	for _, gk := range order {
		group := groups[gk]
		existing, qerr := existingKeys(ctx, tx, gk, group, loc)
		if qerr != nil {
			return 0, qerr
		}
		for _, it := range group {
			if _, ok := existing[keyOf(&it)]; ok {
				updates = append(updates, it)
			} else {
				creates = append(creates, it)
			}
		}
	}

	now := time.Now().UTC()

	updated, err := applyUpdates(ctx, tx, logID, updates, now)
	if err != nil {
		return 0, err
	}
	inserted, err := applyInserts(ctx, tx, logID, creates, now)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit showtime upsert: %w", err)
	}
	return updated + inserted, nil
}

// existingKeys returns the keys already stored for the group's local dates.
func existingKeys(ctx context.Context, tx *sql.Tx, gk groupKey, group []models.ParsedItem, loc *time.Location) (map[rowKey]struct{}, error) {
	dates := make(map[string]struct{})
	var lo, hi time.Time
	for i := range group {
		local := group[i].StartTime.In(loc)
		dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		dates[dayStart.Format("2006-01-02")] = struct{}{}
		if lo.IsZero() || dayStart.Before(lo) {
			lo = dayStart
		}
		if dayEnd := dayStart.AddDate(0, 0, 1); hi.IsZero() || dayEnd.After(hi) {
			hi = dayEnd
		}
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT screen, start_time FROM showtimes
		WHERE brand = ? AND theater = ? AND start_time >= ? AND start_time < ?`,
		string(gk.brand), gk.theater, lo.UTC(), hi.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query existing showtimes: %w", err)
	}
	defer closeWithLog(rows, "rows")

	existing := make(map[rowKey]struct{})
	for rows.Next() {
		var (
			screen string
			st     time.Time
		)
		if err := rows.Scan(&screen, &st); err != nil {
			return nil, fmt.Errorf("failed to scan existing showtime: %w", err)
		}
		if _, ok := dates[st.In(loc).Format("2006-01-02")]; !ok {
			continue
		}
		existing[rowKey{screen: screen, start: st.UTC().UnixMicro()}] = struct{}{}
	}
	return existing, rows.Err()
}

func applyUpdates(ctx context.Context, tx *sql.Tx, logID int64, updates []models.ParsedItem, now time.Time) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE showtimes SET
			is_booking_available = ?,
			end_time = ?,
			movie_title = ?,
			tags = ?,
			total_seats = ?,
			remaining_seats = ?,
			raw_log_id = ?,
			updated_at = ?
		WHERE brand = ? AND theater = ? AND screen = ? AND start_time = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare showtime update: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range updates {
		it := &updates[i]
		tags, err := encodeTags(it.Tags)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			it.IsBookingAvailable, nullTime(it.EndTime), it.MovieTitle, tags,
			it.TotalSeats, it.RemainingSeats, logID, now,
			string(it.Brand), it.Theater, it.Screen, it.StartTime.UTC(),
		); err != nil {
			return 0, fmt.Errorf("failed to update showtime %s/%s/%s: %w", it.Brand, it.Theater, it.Screen, err)
		}
	}
	return len(updates), nil
}

// insertConflictClause refreshes a row that became visible between the
// existence lookup and the insert. created_at keeps its original value.
const insertConflictClause = ` ON CONFLICT (brand, theater, screen, start_time) DO UPDATE SET
			is_booking_available = EXCLUDED.is_booking_available,
			end_time = EXCLUDED.end_time,
			movie_title = EXCLUDED.movie_title,
			tags = EXCLUDED.tags,
			total_seats = EXCLUDED.total_seats,
			remaining_seats = EXCLUDED.remaining_seats,
			raw_log_id = EXCLUDED.raw_log_id,
			updated_at = EXCLUDED.updated_at`

// applyInserts writes creates in chunks and returns the rows inserted or
// refreshed.
func applyInserts(ctx context.Context, tx *sql.Tx, logID int64, creates []models.ParsedItem, now time.Time) (int, error) {
	inserted := 0
	for offset := 0; offset < len(creates); offset += insertChunkSize {
		end := offset + insertChunkSize
		if end > len(creates) {
			end = len(creates)
		}
		chunk := creates[offset:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO showtimes (
			brand, theater, screen, start_time, end_time, movie_title, tags,
			is_booking_available, total_seats, remaining_seats, raw_log_id,
			created_at, updated_at
		) VALUES `)
		args := make([]any, 0, len(chunk)*13)
		for i := range chunk {
			it := &chunk[i]
			tags, err := encodeTags(it.Tags)
			if err != nil {
				return 0, err
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				string(it.Brand), it.Theater, it.Screen, it.StartTime.UTC(), nullTime(it.EndTime),
				it.MovieTitle, tags, it.IsBookingAvailable, it.TotalSeats, it.RemainingSeats,
				logID, now, now,
			)
		}
		sb.WriteString(insertConflictClause)

		res, err := tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert showtimes: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted += int(n)
		} else {
			inserted += len(chunk)
		}
	}
	return inserted, nil
}

// ListShowtimesForRun returns the schedule rows whose raw_log_id points at a
// crawl log captured by runID, with times converted to loc. Rows a later run
// has since re-observed are attributed to that later run instead.
func (db *DB) ListShowtimesForRun(ctx context.Context, runID string, loc *time.Location) ([]*models.Showtime, error) {
	return db.queryShowtimes(ctx, loc, `
		SELECT brand, theater, screen, start_time, end_time, movie_title, tags,
			is_booking_available, total_seats, remaining_seats, raw_log_id,
			created_at, updated_at
		FROM showtimes
		WHERE raw_log_id IN (SELECT id FROM crawl_logs WHERE run_id = ?)
		ORDER BY brand, theater, screen, start_time`, runID)
}

// ListShowtimes returns every row of one brand and theater, ordered by
// screen and start time.
func (db *DB) ListShowtimes(ctx context.Context, brand models.Brand, theater string, loc *time.Location) ([]*models.Showtime, error) {
	return db.queryShowtimes(ctx, loc, `
		SELECT brand, theater, screen, start_time, end_time, movie_title, tags,
			is_booking_available, total_seats, remaining_seats, raw_log_id,
			created_at, updated_at
		FROM showtimes
		WHERE brand = ? AND theater = ?
		ORDER BY screen, start_time`, string(brand), theater)
}

func (db *DB) queryShowtimes(ctx context.Context, loc *time.Location, query string, args ...any) ([]*models.Showtime, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if loc == nil {
		loc = time.UTC
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "showtimes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query showtimes: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.Showtime
	for rows.Next() {
		var (
			st     models.Showtime
			brand  string
			end    sql.NullTime
			tags   string
			rawLog sql.NullInt64
		)
		if err := rows.Scan(&brand, &st.Theater, &st.Screen, &st.StartTime, &end, &st.MovieTitle, &tags,
			&st.IsBookingAvailable, &st.TotalSeats, &st.RemainingSeats, &rawLog,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan showtime: %w", err)
		}
		st.Brand = models.Brand(brand)
		st.StartTime = st.StartTime.In(loc)
		if end.Valid {
			e := end.Time.In(loc)
			st.EndTime = &e
		}
		if rawLog.Valid {
			id := rawLog.Int64
			st.RawLogID = &id
		}
		if err := json.Unmarshal([]byte(tags), &st.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for %s/%s: %w", st.Theater, st.Screen, err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

func keyOf(it *models.ParsedItem) rowKey {
	return rowKey{screen: it.Screen, start: it.StartTime.UTC().UnixMicro()}
}

// dedupeItems keeps the last item for each key, in first-seen key order.
func dedupeItems(items []models.ParsedItem) []models.ParsedItem {
	type fullKey struct {
		group groupKey
		row   rowKey
	}
	index := make(map[fullKey]int, len(items))
	out := make([]models.ParsedItem, 0, len(items))
	for _, it := range items {
		k := fullKey{group: groupKey{brand: it.Brand, theater: it.Theater}, row: keyOf(&it)}
		if i, ok := index[k]; ok {
			out[i] = it
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}
