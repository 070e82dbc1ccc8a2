// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package main

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/tomtom215/showtimes/internal/api"
	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/export"
	"github.com/tomtom215/showtimes/internal/fetch"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/pipeline"
	"github.com/tomtom215/showtimes/internal/registry"
	"github.com/tomtom215/showtimes/internal/supervisor"
	"github.com/tomtom215/showtimes/internal/supervisor/services"
	"github.com/tomtom215/showtimes/internal/transform"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// orphanMessage is recorded on runs a previous process left active.
const orphanMessage = "interrupted by restart"

// app holds the wired components of one server process.
type app struct {
	db          *database.DB
	coordinator *pipeline.Coordinator
	handler     http.Handler
	tree        *supervisor.SupervisorTree
}

// newApp opens the database and wires every component into a supervisor
// tree. The caller owns app.db and must Close it after the tree stops.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	metrics.AppInfo.WithLabelValues(Version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := wire(ctx, cfg, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg *config.Config, db *database.DB) (*app, error) {
	orphans, err := db.FailOrphanedRuns(ctx, orphanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to recover orphaned runs: %w", err)
	}
	if orphans > 0 {
		logging.Warn().Int("runs", orphans).Msg("Marked runs from a previous process as failed")
	}

	if counts, err := db.GetRecordCounts(ctx); err == nil {
		version, _ := db.GetCurrentSchemaVersion()
		logging.Info().
			Str("path", db.GetDatabasePath()).
			Int("schema_version", version).
			Int64("crawl_logs", counts.CrawlLogs).
			Int64("showtimes", counts.Showtimes).
			Int64("runs", counts.Runs).
			Int64("theaters", counts.Theaters).
			Msg("Database ready")
	}

	if cfg.Registry.SeedFile != "" {
		n, err := registry.Seed(ctx, db, cfg.Registry.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed theater registry: %w", err)
		}
		logging.Info().Int("theaters", n).Str("file", cfg.Registry.SeedFile).Msg("Theater registry seeded")
	}

	loc := transform.LoadZone(cfg.Pipeline.Timezone)

	var objects export.ObjectStore
	if cfg.Export.S3.Enabled {
		s3, err := export.NewS3Store(ctx, &cfg.Export.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to configure artifact upload: %w", err)
		}
		objects = s3
		logging.Info().Str("bucket", cfg.Export.S3.Bucket).Msg("Artifact upload enabled")
	}
	exporter := export.New(cfg.Export.Dir, loc, objects, cfg.Export.S3.Prefix)

	coordinator := pipeline.New(
		db,
		fetch.NewFetchers(cfg, db),
		transform.New(db, loc),
		exporter,
		pipeline.Options{Location: loc, MaxRangeDays: cfg.Pipeline.MaxRangeDays},
	)

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitPerMinute
	mwConfig.RateLimitWindow = time.Minute
	mwConfig.RateLimitDisabled = cfg.Server.RateLimitPerMinute <= 0

	handler := api.NewRouter(
		api.NewHandler(coordinator, db, cfg.Pipeline.HistoryLimit),
		api.NewChiMiddleware(mwConfig),
	).Setup()

	drain := cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  2*drain + 5*time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	tree.AddPipelineService(services.NewCoordinatorService(coordinator, drain))
	if cfg.Schedule.Enabled {
		scheduler, err := pipeline.NewScheduler(&cfg.Schedule, coordinator, db, loc)
		if err != nil {
			return nil, err
		}
		tree.AddPipelineService(scheduler)
		logging.Info().Str("cron", cfg.Schedule.Cron).Strs("brands", cfg.Schedule.Brands).Msg("Scheduled runs enabled")
	}

	server := services.NewHTTPServer(&cfg.Server, handler)
	tree.AddAPIService(services.NewHTTPServerService(server, drain))

	return &app{
		db:          db,
		coordinator: coordinator,
		handler:     handler,
		tree:        tree,
	}, nil
}
