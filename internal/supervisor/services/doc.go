// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package services adapts long-running components to suture.Service.

  - HTTPServerService runs the run-control API server and shuts it down
    gracefully when the supervisor stops.
  - CoordinatorService idles for the life of the process and drains the run
    coordinator on shutdown, so no run goroutine outlives the tree.

The cron scheduler (pipeline.Scheduler) implements suture.Service itself and
is added to the tree directly.

Usage:

	tree.AddPipelineService(services.NewCoordinatorService(coordinator, 30*time.Second))
	tree.AddPipelineService(scheduler)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
*/
package services
