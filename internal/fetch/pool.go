// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// LogStore persists raw responses.
type LogStore interface {
	InsertCrawlLog(ctx context.Context, log *models.CrawlLog) (int64, error)
}

// StopCheck reports whether the run should stop. It returns ErrStopped once a
// stop was requested; any other error is logged and the batch continues.
// A nil StopCheck never stops.
type StopCheck func(ctx context.Context) error

// Result is the outcome of one brand fetch.
type Result struct {
	LogsCreated int
	TotalUnits  int
	Failures    []models.FetchFailure
	Stopped     bool
}

// Fetcher harvests one brand for a list of YYYYMMDD dates.
// The returned error is reserved for brand-wide failures such as theater
// discovery; unit failures are reported in Result.Failures.
type Fetcher interface {
	Brand() models.Brand
	Fetch(ctx context.Context, runID string, dates []string, stop StopCheck) (*Result, error)
}

type unitFunc func(ctx context.Context, unit models.WorkUnit) (json.RawMessage, error)

type pool struct {
	brand   models.Brand
	runID   string
	workers int
	store   LogStore
	stop    StopCheck
}

// planUnits builds the theater x date product.
func planUnits(brand models.Brand, theaters []models.Theater, dates []string) []models.WorkUnit {
	units := make([]models.WorkUnit, 0, len(theaters)*len(dates))
	for _, th := range theaters {
		for _, d := range dates {
			units = append(units, models.WorkUnit{
				Brand:       brand,
				Date:        d,
				TheaterID:   th.ID,
				TheaterName: th.Name,
			})
		}
	}
	return units
}

// run drives units through the worker pool. Each worker consults the stop
// check before drawing the next unit; after a stop no further unit starts.
func (p *pool) run(ctx context.Context, units []models.WorkUnit, do unitFunc) *Result {
	res := &Result{TotalUnits: len(units)}
	if len(units) == 0 {
		return res
	}

	workers := p.workers
	if workers > len(units) {
		workers = len(units)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		next    atomic.Int64
		drawn   atomic.Int64
		stopped atomic.Bool
		g       errgroup.Group
	)

	for w := 1; w <= workers; w++ {
		worker := fmt.Sprintf("%s-%d", p.brand, w)
		g.Go(func() error {
			for {
				if stopped.Load() || p.shouldStop(ctx) {
					stopped.Store(true)
					return nil
				}
				i := int(next.Add(1)) - 1
				if i >= len(units) {
					return nil
				}
				drawn.Add(1)

				failure, ok := p.runUnit(ctx, units[i], worker, do)
				mu.Lock()
				if ok {
					res.LogsCreated++
				} else {
					res.Failures = append(res.Failures, failure)
				}
				mu.Unlock()
			}
		})
	}
	_ = g.Wait()

	if abandoned := len(units) - int(drawn.Load()); abandoned > 0 {
		res.Stopped = true
		metrics.FetchUnitsTotal.WithLabelValues(string(p.brand), "abandoned").Add(float64(abandoned))
		logging.Ctx(ctx).Info().Int("abandoned_units", abandoned).Msg("Stop observed, remaining units abandoned")
	} else if stopped.Load() {
		res.Stopped = true
	}
	return res
}

func (p *pool) shouldStop(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if p.stop == nil {
		return false
	}
	err := p.stop(ctx)
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStopped) {
		return true
	}
	logging.Ctx(ctx).Warn().Err(err).Msg("Stop check failed, continuing")
	return false
}

// runUnit fetches and stores one unit. It returns false with a failure record
// when either step fails.
func (p *pool) runUnit(ctx context.Context, unit models.WorkUnit, worker string, do unitFunc) (models.FetchFailure, bool) {
	start := time.Now()
	fail := func(reason string) (models.FetchFailure, bool) {
		metrics.RecordFetchUnit(string(p.brand), "failure", time.Since(start))
		logging.Ctx(ctx).Warn().Str("theater", unit.TheaterName).Str("date", unit.Date).Str("worker", worker).Str("reason", reason).Msg("Work unit failed")
		return models.FetchFailure{
			Brand:   p.brand,
			Theater: unit.TheaterName,
			Date:    unit.Date,
			Reason:  reason,
			Worker:  worker,
		}, false
	}

	payload, err := do(ctx, unit)
	if err != nil {
		return fail(err.Error())
	}

	_, err = p.store.InsertCrawlLog(ctx, &models.CrawlLog{
		Brand:       p.brand,
		QueryDate:   unit.Date,
		TheaterID:   unit.TheaterID,
		TheaterName: unit.TheaterName,
		Payload:     payload,
		Status:      models.CrawlStatusSuccess,
		RunID:       p.runID,
	})
	if err != nil {
		return fail(fmt.Sprintf("failed to store crawl log: %v", err))
	}

	metrics.RecordFetchUnit(string(p.brand), "success", time.Since(start))
	logging.Ctx(ctx).Debug().Str("theater", unit.TheaterName).Str("date", unit.Date).Str("worker", worker).Msg("Work unit stored")
	return models.FetchFailure{}, true
}
