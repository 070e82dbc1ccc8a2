// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/showtimes/internal/logging"
)

var (
	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotRunning is returned when a stop is requested for a run that is
	// neither PENDING nor RUNNING.
	ErrRunNotRunning = errors.New("run is not running")

	// ErrCrawlLogNotFound is returned when no crawl log has the requested id.
	ErrCrawlLogNotFound = errors.New("crawl log not found")
)

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// conflictMarkers are lower-cased fragments of the DuckDB errors raised when
// a transaction loses to a concurrent writer. Two overlapping upserts that
// both insert the same key fail the later commit with a primary key
// violation, which is resolved by retrying against the committed row.
var conflictMarkers = []string{
	"transaction conflict",
	"conflict on update",
	"conflict on tuple",
	"has been altered",
	"duplicate key",
	"duplicated key",
	"constraint violated",
	"violates primary key",
}

// isTransactionConflict reports whether err is a DuckDB error that a fresh
// attempt of the same transaction can succeed past.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range conflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryOnConflict runs fn until it succeeds, fails with an error that is not
// a transaction conflict, or db.conflictRetries attempts are used up. Attempts
// back off 5ms, 10ms, 20ms and so on.
func (db *DB) retryOnConflict(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < db.conflictRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("operation timed out or canceled: %w", ctx.Err())
		}
		if !isTransactionConflict(err) {
			return err
		}

		logging.Debug().Str("op", op).Int("attempt", attempt+1).Err(err).Msg("Lost a transaction conflict, retrying")
		select {
		case <-time.After(5 * time.Millisecond << uint(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
