// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package middleware provides HTTP instrumentation shared by the API router.

PrometheusMetrics records api_requests_total, api_request_duration_seconds
and api_active_requests for every request. Endpoints are labelled with the
chi route pattern rather than the raw path:

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Get("/api/v1/runs/{id}", handler) // label: /api/v1/runs/{id}

Requests that match no route are labelled "unmatched".

CORS, rate limiting and request IDs live in internal/api next to the router
because they depend on the API response envelope.
*/
package middleware
