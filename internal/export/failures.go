// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package export

import (
	"context"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// undatedSheet collects brand-wide failures that carry no date.
const undatedSheet = "undated"

var failuresHeader = []any{"brand", "region", "theater", "date", "reason", "worker"}

// ExportFailures writes one sheet per failing date and returns the path.
// It writes nothing and returns "" when failures is empty.
func (e *Exporter) ExportFailures(ctx context.Context, runID string, failures []models.FetchFailure, regions *RegionResolver) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	byDate := make(map[string][]models.FetchFailure)
	for _, ff := range failures {
		d := ff.Date
		if d == "" {
			d = undatedSheet
		}
		byDate[d] = append(byDate[d], ff)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	for i, d := range dates {
		list := byDate[d]
		sort.SliceStable(list, func(a, b int) bool {
			if ra, rb := list[a].Brand.SortRank(), list[b].Brand.SortRank(); ra != rb {
				return ra < rb
			}
			return list[a].Theater < list[b].Theater
		})
		rows := make([][]any, len(list))
		for j, ff := range list {
			rows[j] = []any{string(ff.Brand), regions.Resolve(ff.Brand, ff.Theater), ff.Theater, ff.Date, ff.Reason, ff.Worker}
		}
		if err := writeSheet(f, d, i == 0, failuresHeader, rows); err != nil {
			return "", err
		}
	}

	dest := e.ArtifactPath(runID, KindFailures)
	if err := save(f, dest); err != nil {
		return "", err
	}
	metrics.ExportArtifacts.WithLabelValues(KindFailures).Inc()
	logging.Ctx(ctx).Info().Str("path", dest).Int("failures", len(failures)).Msg("Failures workbook written")
	return dest, nil
}
