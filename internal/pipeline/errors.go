// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import "errors"

var (
	// ErrNoBrandsSelected is returned when a run request enables no brand.
	ErrNoBrandsSelected = errors.New("no brands selected")

	// ErrInvalidDateRange is returned for unparseable, reversed or oversized ranges.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrSourceRunActive is returned when a transform targets a run that has
	// not finished yet.
	ErrSourceRunActive = errors.New("source run is still active")

	// ErrScheduledRunActive is returned when a scheduled tick is skipped.
	ErrScheduledRunActive = errors.New("a scheduled run is already active")

	// ErrCoordinatorClosed is returned once Shutdown has been called.
	ErrCoordinatorClosed = errors.New("coordinator is shut down")

	errInterrupted = errors.New("interrupted by shutdown")
)
