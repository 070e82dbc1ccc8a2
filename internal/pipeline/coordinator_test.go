// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/models"
)

func TestCoordinator_FetchRunSucceeds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	brandA := &fakeFetcher{
		brand:    models.BrandA,
		store:    db,
		theaters: theaters("BrandA 월드타워", "BrandA 노원", "BrandA 부평"),
		failOn:   map[string]bool{"0003": true},
	}
	c := newTestCoordinator(t, db, brandA)

	run, err := c.StartRun(ctx, StartRequest{Config: brandAConfig("2026-01-31", "2026-02-01"), TriggeredBy: "alice"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" || run.Status != models.RunStatusPending || run.Trigger != models.TriggerManual {
		t.Fatalf("unexpected run %+v", run)
	}
	c.Wait()

	got := mustGetRun(t, db, run.ID)
	if got.Status != models.RunStatusSuccess {
		t.Fatalf("status = %s (%s), want SUCCESS", got.Status, got.ErrorMessage)
	}
	if got.TriggeredBy != "alice" || got.StartedAt == nil || got.FinishedAt == nil {
		t.Errorf("unexpected run metadata %+v", got)
	}

	bs := got.Summary.Brands[models.BrandA]
	if bs == nil {
		t.Fatalf("missing brandA summary: %+v", got.Summary)
	}
	if bs.TotalUnits != 6 || bs.LogsCreated != 4 || bs.Failures != 2 {
		t.Errorf("fetch counts = %+v, want 6 units, 4 logs, 2 failures", bs)
	}
	if bs.RowsTouched != 8 || bs.ItemErrors != 0 {
		t.Errorf("transform counts = %+v, want 8 rows, 0 item errors", bs)
	}
	if len(got.Summary.Dates) != 2 || got.Summary.Dates[0] != "20260131" {
		t.Errorf("dates = %v", got.Summary.Dates)
	}
	if len(got.Summary.Failures) != 2 || got.Summary.Failures[0].Date != "20260131" {
		t.Errorf("failures = %+v", got.Summary.Failures)
	}

	for _, p := range []string{got.ArtifactPath, got.Summary.FailuresArtifactPath} {
		if p == "" {
			t.Fatal("expected artifact paths to be recorded")
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact %s missing: %v", p, err)
		}
	}
}

func TestCoordinator_TargetTitleFilter(t *testing.T) {
	db := setupTestDB(t)

	brandA := &fakeFetcher{brand: models.BrandA, store: db, theaters: theaters("BrandA 월드타워")}
	c := newTestCoordinator(t, db, brandA)

	cfg := brandAConfig("2026-01-31", "2026-01-31")
	cfg.MovieSettings = []models.MovieSetting{{MovieName: "주토피아"}}
	run, err := c.StartRun(context.Background(), StartRequest{Config: cfg})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	c.Wait()

	got := mustGetRun(t, db, run.ID)
	if got.Status != models.RunStatusSuccess {
		t.Fatalf("status = %s (%s)", got.Status, got.ErrorMessage)
	}
	if bs := got.Summary.Brands[models.BrandA]; bs.RowsTouched != 1 || bs.ItemErrors != 0 {
		t.Errorf("summary = %+v, want only the 주토피아 row", bs)
	}

	rows, err := db.ListShowtimesForRun(context.Background(), run.ID, kst)
	if err != nil {
		t.Fatalf("ListShowtimesForRun: %v", err)
	}
	if len(rows) != 1 || rows[0].MovieTitle != "주토피아 2" || rows[0].Screen != "1관" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCoordinator_CooperativeStop(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	brandA := &fakeFetcher{
		brand:    models.BrandA,
		store:    db,
		theaters: theaters("BrandA 월드타워", "BrandA 노원", "BrandA 부평", "BrandA 수원"),
		beforeUnit: func(n int) {
			if n == 1 {
				close(started)
				<-release
			}
		},
	}
	c := newTestCoordinator(t, db, brandA)

	run, err := c.StartRun(ctx, StartRequest{Config: brandAConfig("2026-02-01", "2026-02-03")})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	<-started
	if err := c.StopRun(ctx, run.ID); err != nil {
		t.Fatalf("StopRun: %v", err)
	}
	if status, _ := db.GetRunStatus(ctx, run.ID); status != models.RunStatusStopRequested {
		t.Errorf("status after StopRun = %s, want STOP_REQUESTED", status)
	}
	close(release)
	c.Wait()

	got := mustGetRun(t, db, run.ID)
	if got.Status != models.RunStatusStopped {
		t.Fatalf("status = %s (%s), want STOPPED", got.Status, got.ErrorMessage)
	}
	if got.ErrorMessage != "" || got.ArtifactPath != "" {
		t.Errorf("stopped run should carry no error or artifact: %+v", got)
	}
	bs := got.Summary.Brands[models.BrandA]
	if bs.LogsCreated != 1 || bs.TotalUnits != 12 || !bs.Stopped || !got.Summary.Stopped {
		t.Errorf("summary = %+v, want the in-flight unit only", bs)
	}

	if err := c.StopRun(ctx, run.ID); !errors.Is(err, database.ErrRunNotRunning) {
		t.Errorf("second StopRun error = %v, want ErrRunNotRunning", err)
	}
}

func TestCoordinator_BrandFailureIsolated(t *testing.T) {
	db := setupTestDB(t)

	brandA := &fakeFetcher{brand: models.BrandA, store: db, theaters: theaters("BrandA 월드타워")}
	brandB := &fakeFetcher{brand: models.BrandB, store: db, err: errors.New("discovery returned no theaters")}
	brandC := &fakeFetcher{brand: models.BrandC, store: db, panics: true}
	c := newTestCoordinator(t, db, brandA, brandB, brandC)

	cfg := brandAConfig("2026-01-31", "2026-01-31")
	cfg.ChoiceCompany = models.BrandChoice{BrandA: true, BrandB: true, BrandC: true}
	run, err := c.StartRun(context.Background(), StartRequest{Config: cfg})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	c.Wait()

	got := mustGetRun(t, db, run.ID)
	if got.Status != models.RunStatusSuccess {
		t.Fatalf("status = %s (%s), want SUCCESS", got.Status, got.ErrorMessage)
	}
	if bs := got.Summary.Brands[models.BrandA]; bs.LogsCreated != 1 || bs.RowsTouched != 2 {
		t.Errorf("brandA summary = %+v", bs)
	}

	failures := got.Summary.Failures
	if len(failures) != 2 {
		t.Fatalf("failures = %+v, want one per broken brand", failures)
	}
	if failures[0].Brand != models.BrandB || failures[0].Worker != "brandB-discovery" ||
		!strings.Contains(failures[0].Reason, "no theaters") {
		t.Errorf("brandB failure = %+v", failures[0])
	}
	if failures[1].Brand != models.BrandC || !strings.Contains(failures[1].Reason, "panicked") {
		t.Errorf("brandC failure = %+v", failures[1])
	}
}

func TestCoordinator_PanicMarksRunFailed(t *testing.T) {
	db := setupTestDB(t)
	store := &panickingStore{DB: db}

	brandA := &fakeFetcher{brand: models.BrandA, store: db, theaters: theaters("BrandA 월드타워")}
	c := newTestCoordinator(t, store, brandA)

	run, err := c.StartRun(context.Background(), StartRequest{Config: brandAConfig("2026-01-31", "2026-01-31")})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	c.Wait()

	got := mustGetRun(t, db, run.ID)
	if got.Status != models.RunStatusFailed {
		t.Fatalf("status = %s, want FAILED", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "schedule query exploded") {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
	if got.Summary == nil || got.Summary.Brands[models.BrandA].LogsCreated != 1 {
		t.Errorf("partial summary should survive the panic: %+v", got.Summary)
	}
}

func TestCoordinator_StartRunValidation(t *testing.T) {
	db := setupTestDB(t)
	c := newTestCoordinator(t, db)

	tests := []struct {
		name string
		cfg  models.RunConfig
		want error
	}{
		{"no brands", models.RunConfig{CrawlStartDate: "2026-02-01", CrawlEndDate: "2026-02-01"}, ErrNoBrandsSelected},
		{"reversed range", brandAConfig("2026-02-03", "2026-02-01"), ErrInvalidDateRange},
		{"range too long", brandAConfig("2026-02-01", "2026-02-10"), ErrInvalidDateRange},
		{"bad date", brandAConfig("2026/02/01", "2026-02-01"), ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.StartRun(context.Background(), StartRequest{Config: tt.cfg}); !errors.Is(err, tt.want) {
				t.Errorf("StartRun error = %v, want %v", err, tt.want)
			}
		})
	}

	runs, err := db.ListRecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("rejected requests must not create runs, got %d", len(runs))
	}
}

func TestCoordinator_TransformRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	brandA := &fakeFetcher{brand: models.BrandA, store: db, theaters: theaters("BrandA 월드타워", "BrandA 노원")}
	c := newTestCoordinator(t, db, brandA)

	fetchRun, err := c.StartRun(ctx, StartRequest{Config: brandAConfig("2026-01-31", "2026-01-31")})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	c.Wait()

	tr, err := c.TransformRun(ctx, fetchRun.ID, "")
	if err != nil {
		t.Fatalf("TransformRun: %v", err)
	}
	c.Wait()

	got := mustGetRun(t, db, tr.ID)
	if got.Status != models.RunStatusSuccess || got.Trigger != models.TriggerTransform {
		t.Fatalf("transform run = %+v", got)
	}
	if got.SourceRunID != fetchRun.ID || got.TriggeredBy != DefaultActor {
		t.Errorf("source/actor = %q/%q", got.SourceRunID, got.TriggeredBy)
	}
	if bs := got.Summary.Brands[models.BrandA]; bs.RowsTouched != 4 || bs.LogsCreated != 0 {
		t.Errorf("summary = %+v, want 4 re-applied rows and no new logs", bs)
	}
	sourceLogs, err := db.CountCrawlLogs(ctx, fetchRun.ID)
	if err != nil {
		t.Fatalf("CountCrawlLogs: %v", err)
	}
	if bs := got.Summary.Brands[models.BrandA]; sourceLogs[models.BrandA] == 0 || bs.TotalUnits != sourceLogs[models.BrandA] {
		t.Errorf("transform total units = %d, want the %d source logs", bs.TotalUnits, sourceLogs[models.BrandA])
	}
	if _, err := os.Stat(got.ArtifactPath); err != nil {
		t.Errorf("artifact missing: %v", err)
	}

	// A transform of a transform reads the original fetch run's logs.
	again, err := c.TransformRun(ctx, tr.ID, "bob")
	if err != nil {
		t.Fatalf("TransformRun of transform: %v", err)
	}
	c.Wait()
	if got := mustGetRun(t, db, again.ID); got.SourceRunID != fetchRun.ID || got.Summary.Brands[models.BrandA].RowsTouched != 4 {
		t.Errorf("chained transform = %+v", got)
	}
}

func TestCoordinator_TransformRunRejectsActiveSource(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := newTestCoordinator(t, db)

	pending := &models.Run{Trigger: models.TriggerManual, TriggeredBy: "api", Configuration: brandAConfig("2026-02-01", "2026-02-01")}
	if err := db.CreatePendingRun(ctx, pending); err != nil {
		t.Fatalf("CreatePendingRun: %v", err)
	}

	if _, err := c.TransformRun(ctx, pending.ID, ""); !errors.Is(err, ErrSourceRunActive) {
		t.Errorf("error = %v, want ErrSourceRunActive", err)
	}
	if _, err := c.TransformRun(ctx, "missing", ""); !errors.Is(err, database.ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestCoordinator_Shutdown(t *testing.T) {
	db := setupTestDB(t)
	c := newTestCoordinator(t, db)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := c.StartRun(context.Background(), StartRequest{Config: brandAConfig("2026-02-01", "2026-02-01")}); !errors.Is(err, ErrCoordinatorClosed) {
		t.Errorf("StartRun after shutdown = %v, want ErrCoordinatorClosed", err)
	}
}

func TestSortFailures(t *testing.T) {
	t.Parallel()

	failures := []models.FetchFailure{
		{Brand: models.BrandC, Date: "20260201", Theater: "c"},
		{Brand: models.BrandA, Date: "20260202", Theater: "a"},
		{Brand: models.BrandA, Date: "20260201", Theater: "b"},
		{Brand: models.BrandA, Date: "20260201", Theater: "a"},
	}
	sortFailures(failures)

	want := []string{"a20260201", "b20260201", "a20260202", "c20260201"}
	for i, f := range failures {
		if got := f.Theater + f.Date; got != want[i] {
			t.Errorf("failures[%d] = %s, want %s", i, got, want[i])
		}
	}
}
