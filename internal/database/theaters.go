// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// ListRegistryTheaters returns the theater registry ordered by brand and name.
func (db *DB) ListRegistryTheaters(ctx context.Context) ([]models.RegistryTheater, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT brand_key, display_name, excel_alias, region_code
		FROM theater_registry ORDER BY brand_key, display_name`)
	metrics.RecordDBQuery("SELECT", "theater_registry", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list theater registry: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.RegistryTheater
	for rows.Next() {
		var t models.RegistryTheater
		if err := rows.Scan(&t.BrandKey, &t.DisplayName, &t.ExcelAlias, &t.RegionCode); err != nil {
			return nil, fmt.Errorf("failed to scan registry theater: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceRegistryTheaters swaps every registry row of brandKey for theaters
// in one transaction. Entries repeating a display name keep the last one.
func (db *DB) ReplaceRegistryTheaters(ctx context.Context, brandKey string, theaters []models.RegistryTheater) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM theater_registry WHERE brand_key = ?`, brandKey); err != nil {
		return fmt.Errorf("failed to clear registry for %s: %w", brandKey, err)
	}

	byName := make(map[string]int, len(theaters))
	unique := make([]models.RegistryTheater, 0, len(theaters))
	for _, t := range theaters {
		if t.DisplayName == "" {
			continue
		}
		if i, ok := byName[t.DisplayName]; ok {
			unique[i] = t
			continue
		}
		byName[t.DisplayName] = len(unique)
		unique = append(unique, t)
	}

	for _, t := range unique {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO theater_registry (brand_key, display_name, excel_alias, region_code)
			VALUES (?, ?, ?, ?)`,
			brandKey, t.DisplayName, t.ExcelAlias, t.RegionCode); err != nil {
			return fmt.Errorf("failed to insert registry theater %s: %w", t.DisplayName, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registry replace: %w", err)
	}
	return nil
}
