// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrMalformedPayload marks a response body that is not usable JSON for the brand.
	// It is terminal for the unit.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrPayloadTooLarge marks a response body over the client's size limit.
	// It is terminal for the unit; the body is never truncated and stored.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnexpectedStatus marks a non-2xx response. It is retried.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrStopped is returned by a StopCheck once the run has been asked to stop.
	ErrStopped = errors.New("run stop requested")
)

// isRetryable reports whether another attempt may succeed.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrPayloadTooLarge):
		return false
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
