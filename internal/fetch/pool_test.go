// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/models"
)

func okUnit(context.Context, models.WorkUnit) (json.RawMessage, error) {
	return json.RawMessage(`{"data":[]}`), nil
}

func TestPlanUnits(t *testing.T) {
	t.Parallel()

	theaters := []models.Theater{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}}
	units := planUnits(models.BrandA, theaters, []string{"20260101", "20260102", "20260103"})
	if len(units) != 6 {
		t.Fatalf("expected 6 units, got %d", len(units))
	}
	if units[0].TheaterID != "1" || units[0].Date != "20260101" || units[0].Brand != models.BrandA {
		t.Errorf("unexpected first unit %+v", units[0])
	}
	if units[5].TheaterName != "Two" || units[5].Date != "20260103" {
		t.Errorf("unexpected last unit %+v", units[5])
	}
}

func TestPool_AllUnitsStored(t *testing.T) {
	store := &fakeLogStore{}
	p := &pool{brand: models.BrandA, runID: "run-1", workers: 4, store: store}
	units := planUnits(models.BrandA, []models.Theater{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}}, []string{"20260101", "20260102"})

	res := p.run(context.Background(), units, okUnit)

	if res.LogsCreated != 4 || res.TotalUnits != 4 || len(res.Failures) != 0 || res.Stopped {
		t.Errorf("unexpected result %+v", res)
	}
	for _, l := range store.logs {
		if l.RunID != "run-1" || l.Status != models.CrawlStatusSuccess || l.Brand != models.BrandA {
			t.Errorf("unexpected log %+v", l)
		}
	}
}

func TestPool_StopObservedBetweenUnits(t *testing.T) {
	store := &fakeLogStore{}
	var checks atomic.Int32
	stop := func(context.Context) error {
		if checks.Add(1) > 2 {
			return ErrStopped
		}
		return nil
	}
	var started atomic.Int32
	do := func(ctx context.Context, u models.WorkUnit) (json.RawMessage, error) {
		started.Add(1)
		return okUnit(ctx, u)
	}

	p := &pool{brand: models.BrandB, runID: "run-2", workers: 1, store: store, stop: stop}
	units := planUnits(models.BrandB, []models.Theater{{ID: "1", Name: "One"}}, []string{"1", "2", "3", "4", "5"})

	res := p.run(context.Background(), units, do)

	if !res.Stopped {
		t.Error("expected Stopped")
	}
	if got := started.Load(); got != 2 {
		t.Errorf("expected 2 units started before the stop, got %d", got)
	}
	if res.LogsCreated != 2 || res.TotalUnits != 5 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestPool_StopCheckErrorDoesNotStop(t *testing.T) {
	store := &fakeLogStore{}
	stop := func(context.Context) error { return errors.New("database is locked") }
	p := &pool{brand: models.BrandC, workers: 2, store: store, stop: stop}
	units := planUnits(models.BrandC, []models.Theater{{ID: "1", Name: "One"}}, []string{"1", "2", "3"})

	res := p.run(context.Background(), units, okUnit)
	if res.Stopped || res.LogsCreated != 3 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestPool_CanceledContextAbandonsUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &pool{brand: models.BrandA, workers: 2, store: &fakeLogStore{}}
	units := planUnits(models.BrandA, []models.Theater{{ID: "1", Name: "One"}}, []string{"1", "2"})

	res := p.run(ctx, units, okUnit)
	if !res.Stopped || res.LogsCreated != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestPool_FailuresAreIsolated(t *testing.T) {
	store := &fakeLogStore{failOn: map[string]bool{"3": true}}
	do := func(ctx context.Context, u models.WorkUnit) (json.RawMessage, error) {
		if u.TheaterID == "2" {
			return nil, ErrMalformedPayload
		}
		return okUnit(ctx, u)
	}
	p := &pool{brand: models.BrandA, workers: 3, store: store}
	theaters := []models.Theater{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}, {ID: "3", Name: "Three"}}

	res := p.run(context.Background(), planUnits(models.BrandA, theaters, []string{"20260101"}), do)

	if res.LogsCreated != 1 {
		t.Errorf("expected 1 log, got %d", res.LogsCreated)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", res.Failures)
	}
	reasons := map[string]string{}
	for _, f := range res.Failures {
		reasons[f.Theater] = f.Reason
		if !strings.HasPrefix(f.Worker, "brandA-") {
			t.Errorf("unexpected worker label %q", f.Worker)
		}
		if f.Date != "20260101" || f.Brand != models.BrandA {
			t.Errorf("unexpected failure %+v", f)
		}
	}
	if !strings.Contains(reasons["Two"], "malformed payload") {
		t.Errorf("unexpected reason for Two: %q", reasons["Two"])
	}
	if !strings.Contains(reasons["Three"], "failed to store crawl log") {
		t.Errorf("unexpected reason for Three: %q", reasons["Three"])
	}
}

func TestPool_EmptyUnits(t *testing.T) {
	t.Parallel()

	p := &pool{brand: models.BrandA, workers: 2, store: &fakeLogStore{}}
	res := p.run(context.Background(), nil, okUnit)
	if res.TotalUnits != 0 || res.LogsCreated != 0 || res.Stopped {
		t.Errorf("unexpected result %+v", res)
	}
}
