// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/models"
)

func loadTestConfig(t *testing.T, dbPath string) *config.Config {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	t.Setenv("DUCKDB_PATH", dbPath)
	t.Setenv("DUCKDB_MAX_MEMORY", "256MB")
	t.Setenv("EXPORT_DIR", t.TempDir())
	t.Setenv("SCHEDULE_ENABLED", "false")
	t.Setenv("EXPORT_S3_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestNewAppServesHealth(t *testing.T) {
	cfg := loadTestConfig(t, ":memory:")

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { _ = a.db.Close() })

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/runs = %d, want 200", rec.Code)
	}
}

func TestNewAppRejectsInvalidSchedule(t *testing.T) {
	cfg := loadTestConfig(t, ":memory:")
	cfg.Schedule.Enabled = true
	cfg.Schedule.Cron = "not a cron"

	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("newApp() error = nil, want invalid schedule error")
	}
}

func TestNewAppRejectsMissingSeedFile(t *testing.T) {
	cfg := loadTestConfig(t, ":memory:")
	cfg.Registry.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Fatal("newApp() error = nil, want seed error")
	}
}

func TestNewAppFailsOrphanedRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "showtimes.duckdb")
	cfg := loadTestConfig(t, dbPath)
	ctx := context.Background()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	run := &models.Run{Trigger: models.TriggerManual, TriggeredBy: "tester"}
	if err := db.CreatePendingRun(ctx, run); err != nil {
		t.Fatalf("CreatePendingRun() error = %v", err)
	}
	if err := db.MarkRunRunning(ctx, run.ID); err != nil {
		t.Fatalf("MarkRunRunning() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { _ = a.db.Close() })

	got, err := a.db.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != models.RunStatusFailed {
		t.Errorf("Status = %s, want FAILED", got.Status)
	}
	if got.ErrorMessage != orphanMessage {
		t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, orphanMessage)
	}
}
