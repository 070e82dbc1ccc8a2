// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/export"
	"github.com/tomtom215/showtimes/internal/fetch"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/transform"
)

var kst = time.FixedZone("KST", 9*60*60)

// testDBSemaphore serializes DuckDB instances across tests.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestCoordinator(t *testing.T, store Store, fetchers ...fetch.Fetcher) *Coordinator {
	t.Helper()
	byBrand := make(map[models.Brand]fetch.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byBrand[f.Brand()] = f
	}
	return New(store, byBrand, transform.New(scheduleStore(store), kst), export.New(t.TempDir(), kst, nil, ""), Options{MaxRangeDays: 7})
}

// scheduleStore unwraps test store decorators to the database underneath.
func scheduleStore(store Store) transform.ScheduleStore {
	switch s := store.(type) {
	case *database.DB:
		return s
	case *panickingStore:
		return s.DB
	default:
		panic(fmt.Sprintf("unexpected store %T", store))
	}
}

// fakeFetcher writes one BrandA-shaped log per (theater, date) and honors the
// stop check between units.
type fakeFetcher struct {
	brand    models.Brand
	store    fetch.LogStore
	theaters []models.Theater
	failOn   map[string]bool
	err      error
	panics   bool
	// beforeUnit runs after the stop check of each unit.
	beforeUnit func(n int)
}

func (f *fakeFetcher) Brand() models.Brand { return f.brand }

func (f *fakeFetcher) Fetch(ctx context.Context, runID string, dates []string, stop fetch.StopCheck) (*fetch.Result, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}

	res := &fetch.Result{TotalUnits: len(f.theaters) * len(dates)}
	n := 0
	for _, th := range f.theaters {
		for _, date := range dates {
			if stop != nil && errors.Is(stop(ctx), fetch.ErrStopped) {
				res.Stopped = true
				return res, nil
			}
			n++
			if f.beforeUnit != nil {
				f.beforeUnit(n)
			}
			if f.failOn[th.ID] {
				res.Failures = append(res.Failures, models.FetchFailure{
					Brand: f.brand, Theater: th.Name, Date: date, Reason: "status 503", Worker: string(f.brand) + "-1",
				})
				continue
			}
			_, err := f.store.InsertCrawlLog(ctx, &models.CrawlLog{
				Brand:       f.brand,
				QueryDate:   date,
				TheaterID:   th.ID,
				TheaterName: th.Name,
				Payload:     brandAPayload(date),
				Status:      models.CrawlStatusSuccess,
				RunID:       runID,
			})
			if err != nil {
				return nil, err
			}
			res.LogsCreated++
		}
	}
	return res, nil
}

func brandAPayload(date string) []byte {
	return []byte(fmt.Sprintf(`{"data":[
		{"movieNm":"탑건(IMAX)","scnYmd":"%[1]s","scnsrtTm":"1900","scnendTm":"2110","scrnNm":"3","totSeatCnt":100,"restSeatCnt":40},
		{"movieNm":"주토피아 2(더빙)","scnYmd":"%[1]s","scnsrtTm":"2405","scnendTm":"2605","scrnNm":"1관 (리클라이너)","totSeatCnt":80,"restSeatCnt":80}
	]}`, date))
}

func theaters(names ...string) []models.Theater {
	out := make([]models.Theater, 0, len(names))
	for i, name := range names {
		out = append(out, models.Theater{ID: fmt.Sprintf("%04d", i+1), Name: name})
	}
	return out
}

func brandAConfig(start, end string) models.RunConfig {
	return models.RunConfig{
		CrawlStartDate: start,
		CrawlEndDate:   end,
		ChoiceCompany:  models.BrandChoice{BrandA: true},
	}
}

// panickingStore panics when the export phase loads schedule rows.
type panickingStore struct {
	*database.DB
}

func (s *panickingStore) ListShowtimesForRun(context.Context, string, *time.Location) ([]*models.Showtime, error) {
	panic("schedule query exploded")
}

// fakeStarter records scheduled start requests.
type fakeStarter struct {
	mu       sync.Mutex
	requests []StartRequest
	err      error
}

func (s *fakeStarter) StartRun(_ context.Context, req StartRequest) (*models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	return &models.Run{ID: fmt.Sprintf("run-%d", len(s.requests)), Trigger: req.Trigger, Status: models.RunStatusPending}, nil
}

type fakeActiveChecker struct {
	active bool
	err    error
}

func (c fakeActiveChecker) HasActiveRun(context.Context, models.RunTrigger) (bool, error) {
	return c.active, c.err
}

func mustGetRun(t *testing.T, db *database.DB, id string) *models.Run {
	t.Helper()
	run, err := db.GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRun(%s): %v", id, err)
	}
	return run
}
