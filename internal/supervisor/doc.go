// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package supervisor provides process supervision for Showtimes using suture v4.

# Overview

Long-running services are organized into two layers:

	RootSupervisor ("showtimes")
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── CoordinatorService (drains in-flight runs on shutdown)
	│   └── Scheduler (if schedule.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with backoff inside its own layer; the other
layer keeps running. Runs themselves are not suture services: they are
goroutines owned by the coordinator, and a panic inside one marks only that
run FAILED.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: 45 * time.Second,
	})
	if err != nil {
	    return err
	}
	tree.AddPipelineService(services.NewCoordinatorService(coordinator, 30*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

Supervisor events (service start, failure, backoff) are logged through the
slog adapter in internal/logging, so they land in the same zerolog stream as
the rest of the process.

# Shutdown

Canceling ctx stops every service. ShutdownTimeout must be longer than the
coordinator drain timeout; services still running after it are listed by
UnstoppedServiceReport.
*/
package supervisor
