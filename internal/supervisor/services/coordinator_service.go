// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/showtimes/internal/logging"
)

// RunDrainer refuses new runs and waits for in-flight ones.
// *pipeline.Coordinator satisfies it.
type RunDrainer interface {
	Shutdown(ctx context.Context) error
}

// CoordinatorService ties the run coordinator's lifetime to the supervisor.
// It idles until ctx is canceled and then drains the coordinator. In-flight
// runs observe the cancellation at their next unit and finish FAILED.
type CoordinatorService struct {
	coordinator  RunDrainer
	drainTimeout time.Duration
}

// NewCoordinatorService wraps c. A non-positive drainTimeout selects
// DefaultShutdownTimeout.
func NewCoordinatorService(c RunDrainer, drainTimeout time.Duration) *CoordinatorService {
	if drainTimeout <= 0 {
		drainTimeout = DefaultShutdownTimeout
	}
	return &CoordinatorService{coordinator: c, drainTimeout: drainTimeout}
}

// Serve implements suture.Service.
func (s *CoordinatorService) Serve(ctx context.Context) error {
	<-ctx.Done()

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	start := time.Now()
	if err := s.coordinator.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("coordinator drain failed: %w", err)
	}
	logging.Info().Dur("took", time.Since(start)).Msg("Run coordinator drained")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *CoordinatorService) String() string {
	return "run-coordinator"
}
