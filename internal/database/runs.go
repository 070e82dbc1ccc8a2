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

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// RunResult is the terminal outcome written by MarkRunFinished.
type RunResult struct {
	Status       models.RunStatus
	Summary      *models.RunSummary
	ErrorMessage string
	ArtifactPath string
}

const runColumns = `id, status, trigger_type, triggered_by, source_run_id, configuration,
	result_summary, error_message, artifact_path, created_at, started_at, finished_at`

// CreatePendingRun inserts run as PENDING. ID and CreatedAt are assigned
// when empty.
func (db *DB) CreatePendingRun(ctx context.Context, run *models.Run) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Status = models.RunStatusPending

	cfgJSON, err := json.Marshal(run.Configuration)
	if err != nil {
		return fmt.Errorf("failed to encode run configuration: %w", err)
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO runs (id, status, trigger_type, triggered_by, source_run_id, configuration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), string(run.Trigger), run.TriggeredBy,
		nullString(run.SourceRunID), string(cfgJSON), run.CreatedAt.UTC())
	metrics.RecordDBQuery("INSERT", "runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// MarkRunRunning moves a PENDING run to RUNNING. A run that was already
// stop-requested is left alone so the coordinator can observe the request.
func (db *DB) MarkRunRunning(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET status = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		string(models.RunStatusRunning), time.Now().UTC(), id, string(models.RunStatusPending))
	metrics.RecordDBQuery("UPDATE", "runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to mark run %s running: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := db.GetRunStatus(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkRunFinished records the terminal status, summary, error and artifact.
func (db *DB) MarkRunFinished(ctx context.Context, id string, result RunResult) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if !result.Status.Terminal() {
		return fmt.Errorf("cannot finish run %s with non-terminal status %s", id, result.Status)
	}

	var summary any
	if result.Summary != nil {
		b, err := json.Marshal(result.Summary)
		if err != nil {
			return fmt.Errorf("failed to encode run summary: %w", err)
		}
		summary = string(b)
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET status = ?, result_summary = ?, error_message = ?, artifact_path = ?, finished_at = ?
		WHERE id = ?`,
		string(result.Status), summary, nullString(result.ErrorMessage), nullString(result.ArtifactPath),
		time.Now().UTC(), id)
	metrics.RecordDBQuery("UPDATE", "runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RequestStop atomically moves a PENDING or RUNNING run to STOP_REQUESTED.
// Any other status yields ErrRunNotRunning.
func (db *DB) RequestStop(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var affected int64
	err := db.retryOnConflict(ctx, "request_stop", func() error {
		start := time.Now()
		res, err := db.conn.ExecContext(ctx, `
			UPDATE runs SET status = ?
			WHERE id = ? AND status IN (?, ?)`,
			string(models.RunStatusStopRequested), id,
			string(models.RunStatusPending), string(models.RunStatusRunning))
		metrics.RecordDBQuery("UPDATE", "runs", time.Since(start), err)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to request stop for run %s: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := db.GetRunStatus(ctx, id); err != nil {
		return err
	}
	return ErrRunNotRunning
}

// GetRunStatus reads only the status column. The coordinator polls this
// between work units.
func (db *DB) GetRunStatus(ctx context.Context, id string) (models.RunStatus, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var status string
	err := db.conn.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status of run %s: %w", id, err)
	}
	return models.RunStatus(status), nil
}

// GetRun returns one run by id.
func (db *DB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	metrics.RecordDBQuery("SELECT", "runs", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRecentRuns returns up to limit runs, newest first.
func (db *DB) ListRecentRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	metrics.RecordDBQuery("SELECT", "runs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer closeWithLog(rows, "rows")

	runs := make([]*models.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// HasActiveRun reports whether any run with the given trigger is still
// PENDING, RUNNING or STOP_REQUESTED.
func (db *DB) HasActiveRun(ctx context.Context, trigger models.RunTrigger) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM runs WHERE trigger_type = ? AND status IN (?, ?, ?)`,
		string(trigger), string(models.RunStatusPending), string(models.RunStatusRunning),
		string(models.RunStatusStopRequested)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check active runs: %w", err)
	}
	return n > 0, nil
}

// FailOrphanedRuns marks runs left active by a previous process as FAILED.
// It must only be called before any coordinator starts.
func (db *DB) FailOrphanedRuns(ctx context.Context, message string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET status = ?, error_message = ?, finished_at = ?
		WHERE status IN (?, ?, ?)`,
		string(models.RunStatusFailed), message, time.Now().UTC(),
		string(models.RunStatusPending), string(models.RunStatusRunning),
		string(models.RunStatusStopRequested))
	if err != nil {
		return 0, fmt.Errorf("failed to fail orphaned runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count orphaned runs: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run                          models.Run
		status, trigger, cfg         string
		source, summary, errMsg, art sql.NullString
		started, finished            sql.NullTime
	)
	if err := row.Scan(&run.ID, &status, &trigger, &run.TriggeredBy, &source, &cfg,
		&summary, &errMsg, &art, &run.CreatedAt, &started, &finished); err != nil {
		return nil, err
	}

	run.Status = models.RunStatus(status)
	run.Trigger = models.RunTrigger(trigger)
	run.SourceRunID = source.String
	run.ErrorMessage = errMsg.String
	run.ArtifactPath = art.String
	if started.Valid {
		t := started.Time
		run.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}

	if err := json.Unmarshal([]byte(cfg), &run.Configuration); err != nil {
		return nil, fmt.Errorf("failed to decode configuration of run %s: %w", run.ID, err)
	}
	if summary.Valid && summary.String != "" {
		run.Summary = &models.RunSummary{}
		if err := json.Unmarshal([]byte(summary.String), run.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode summary of run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}
