// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import "errors"

var (
	// ErrUnparseableTime marks a time value that matches no known layout.
	ErrUnparseableTime = errors.New("unparseable time")

	// ErrMissingField marks an item without a title or start time.
	ErrMissingField = errors.New("missing required field")
)
