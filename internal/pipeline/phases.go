// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/showtimes/internal/export"
	"github.com/tomtom215/showtimes/internal/fetch"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/transform"
)

// MaxSummaryItemErrors caps the item errors copied into a run summary.
// Per-brand counts are always complete.
const MaxSummaryItemErrors = 200

// fetchBrands runs every brand fetcher in parallel and folds the results
// into summary. Brand-wide errors become a single failure record.
func (c *Coordinator) fetchBrands(ctx context.Context, runID string, brands []models.Brand, dates []string, stop fetch.StopCheck, summary *models.RunSummary) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(len(brands))

	for _, brand := range brands {
		g.Go(func() error {
			bctx := logging.ContextWithBrand(ctx, string(brand))
			res, err := c.fetchBrand(bctx, brand, runID, dates, stop)

			mu.Lock()
			defer mu.Unlock()
			bs := summary.Brand(brand)
			if err != nil {
				logging.Ctx(bctx).Error().Err(err).Msg("Brand fetch failed")
				bs.Failures++
				summary.Failures = append(summary.Failures, models.FetchFailure{
					Brand:  brand,
					Reason: err.Error(),
					Worker: string(brand) + "-discovery",
				})
				return nil
			}

			bs.LogsCreated += res.LogsCreated
			bs.TotalUnits += res.TotalUnits
			bs.Failures += len(res.Failures)
			bs.Stopped = bs.Stopped || res.Stopped
			summary.Failures = append(summary.Failures, res.Failures...)

			logging.Ctx(bctx).Info().
				Int("logs_created", res.LogsCreated).
				Int("total_units", res.TotalUnits).
				Int("failures", len(res.Failures)).
				Bool("stopped", res.Stopped).
				Msg("Brand fetch finished")
			return nil
		})
	}
	_ = g.Wait()

	sortFailures(summary.Failures)
}

func (c *Coordinator) fetchBrand(ctx context.Context, brand models.Brand, runID string, dates []string, stop fetch.StopCheck) (res *fetch.Result, err error) {
	f, ok := c.fetchers[brand]
	if !ok || f == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", brand)
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("fetcher panicked: %v", r)
		}
	}()

	res, err = f.Fetch(ctx, runID, dates, stop)
	if err == nil && res == nil {
		res = &fetch.Result{}
	}
	return res, err
}

// transformLogs upserts the schedule rows of every log logRunID captured.
// Each log commits on its own; a log that fails does not undo the others but
// fails the phase once every brand is done.
func (c *Coordinator) transformLogs(ctx context.Context, logRunID string, brands []models.Brand, targets []string, stop fetch.StopCheck, summary *models.RunSummary) error {
	titles := transform.NewTitleMap()

	var (
		mu       sync.Mutex
		badLogs  int
		total    int
		firstErr error
		g        errgroup.Group
	)
	g.SetLimit(len(brands))

	recordFailure := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		badLogs++
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, brand := range brands {
		g.Go(func() error {
			bctx := logging.ContextWithBrand(ctx, string(brand))
			ids, err := c.store.ListCrawlLogIDs(bctx, logRunID, brand)
			if err != nil {
				return fmt.Errorf("failed to list %s crawl logs: %w", brand, err)
			}
			mu.Lock()
			total += len(ids)
			mu.Unlock()

			for _, id := range ids {
				if bctx.Err() != nil {
					return nil
				}
				if stop != nil && errors.Is(stop(bctx), fetch.ErrStopped) {
					logging.Ctx(bctx).Info().Msg("Stop observed during transform")
					return nil
				}

				log, err := c.store.GetCrawlLog(bctx, id)
				if err != nil {
					logging.Ctx(bctx).Warn().Err(err).Int64("log_id", id).Msg("Failed to load crawl log")
					recordFailure(fmt.Errorf("log %d: %w", id, err))
					continue
				}
				res, err := c.transformer.TransformLog(bctx, log, targets, titles)
				if err != nil {
					logging.Ctx(bctx).Warn().Err(err).Int64("log_id", id).Str("theater", log.TheaterName).Msg("Failed to transform crawl log")
					recordFailure(fmt.Errorf("log %d: %w", id, err))
					continue
				}

				mu.Lock()
				bs := summary.Brand(brand)
				bs.RowsTouched += res.RowsTouched
				bs.ItemErrors += len(res.ItemErrors)
				for _, ie := range res.ItemErrors {
					if len(summary.ItemErrors) >= MaxSummaryItemErrors {
						break
					}
					summary.ItemErrors = append(summary.ItemErrors, ie)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Int("logs", total).
		Int("failed_logs", badLogs).
		Int("titles", titles.Len()).
		Msg("Transform phase finished")

	if badLogs > 0 {
		return fmt.Errorf("%d of %d crawl logs failed to transform: %w", badLogs, total, firstErr)
	}
	return nil
}

// exportArtifacts writes the schedule workbook for the rows scheduleRunID's
// logs supplied, plus a failures workbook when there are failures, and
// uploads both when object storage is configured. Upload errors are logged
// only.
func (c *Coordinator) exportArtifacts(ctx context.Context, runID, scheduleRunID string, summary *models.RunSummary) (string, error) {
	rows, err := c.store.ListShowtimesForRun(ctx, scheduleRunID, c.loc)
	if err != nil {
		return "", fmt.Errorf("failed to load schedule rows: %w", err)
	}
	regions := c.regions(ctx)

	path, err := c.exporter.ExportSchedule(ctx, runID, rows, regions)
	if err != nil {
		return "", fmt.Errorf("failed to export schedule: %w", err)
	}

	if len(summary.Failures) > 0 {
		failuresPath, err := c.exporter.ExportFailures(ctx, runID, summary.Failures, regions)
		if err != nil {
			return "", fmt.Errorf("failed to export failures: %w", err)
		}
		summary.FailuresArtifactPath = failuresPath
	}

	if c.exporter.UploadEnabled() {
		for _, p := range []string{path, summary.FailuresArtifactPath} {
			if p == "" {
				continue
			}
			key, err := c.exporter.Upload(ctx, runID, p)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("Artifact upload failed")
				continue
			}
			summary.UploadedObjects = append(summary.UploadedObjects, key)
		}
	}
	return path, nil
}

// regions builds the region resolver. A registry failure degrades every
// region to "-".
func (c *Coordinator) regions(ctx context.Context) *export.RegionResolver {
	theaters, err := c.store.ListRegistryTheaters(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Theater registry unavailable, regions left blank")
		return nil
	}
	return export.NewRegionResolver(theaters)
}

// sortFailures orders failures by brand, date, theater.
func sortFailures(failures []models.FetchFailure) {
	sort.SliceStable(failures, func(i, j int) bool {
		a, b := failures[i], failures[j]
		if ra, rb := a.Brand.SortRank(), b.Brand.SortRank(); ra != rb {
			return ra < rb
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Theater < b.Theater
	})
}
