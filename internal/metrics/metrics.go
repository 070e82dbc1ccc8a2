// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Fetch Metrics
	FetchUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_units_total",
			Help: "Work units processed by brand fetchers",
		},
		[]string{"brand", "result"}, // result: "success", "failure", "abandoned"
	)

	FetchUnitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_unit_duration_seconds",
			Help:    "Wall time of one work unit including retries",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"brand"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_retries_total",
			Help: "Retried brand backend requests",
		},
		[]string{"brand"},
	)

	FetchDiscoveredTheaters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fetch_discovered_theaters",
			Help: "Theaters found by the most recent discovery per brand",
		},
		[]string{"brand"},
	)

	// Transform Metrics
	TransformRowsTouched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_rows_touched_total",
			Help: "Schedule rows inserted or updated by transformers",
		},
		[]string{"brand"},
	)

	TransformItemErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_item_errors_total",
			Help: "Schedule items rejected during transform",
		},
		[]string{"brand"},
	)

	TransformLogDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transform_log_duration_seconds",
			Help:    "Duration of transforming one raw log",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"brand"},
	)

	// Run Metrics
	RunsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_started_total",
			Help: "Pipeline runs started",
		},
		[]string{"trigger"},
	)

	RunsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_finished_total",
			Help: "Pipeline runs finished by final status",
		},
		[]string{"trigger", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Wall time of pipeline runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"trigger"},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_runs_active",
			Help: "Pipeline runs currently executing",
		},
	)

	ScheduledRunsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_scheduled_runs_skipped_total",
			Help: "Cron ticks skipped because a scheduled run was still active",
		},
	)

	// Export Metrics
	ExportArtifacts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_artifacts_total",
			Help: "Workbooks written by the exporter",
		},
		[]string{"kind"}, // kind: "schedule", "failures"
	)

	ExportUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_uploads_total",
			Help: "Artifact uploads to object storage",
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyError(err)).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordFetchUnit records the outcome of one work unit.
func RecordFetchUnit(brand, result string, duration time.Duration) {
	FetchUnitsTotal.WithLabelValues(brand, result).Inc()
	if result != "abandoned" {
		FetchUnitDuration.WithLabelValues(brand).Observe(duration.Seconds())
	}
}

// RecordFetchRetry counts one retried request.
func RecordFetchRetry(brand string) {
	FetchRetries.WithLabelValues(brand).Inc()
}

// RecordTransform records the outcome of transforming one raw log.
func RecordTransform(brand string, rowsTouched, itemErrors int, duration time.Duration) {
	TransformRowsTouched.WithLabelValues(brand).Add(float64(rowsTouched))
	TransformItemErrors.WithLabelValues(brand).Add(float64(itemErrors))
	TransformLogDuration.WithLabelValues(brand).Observe(duration.Seconds())
}

// RecordRunStarted marks a run as executing.
func RecordRunStarted(trigger string) {
	RunsStarted.WithLabelValues(trigger).Inc()
	RunsActive.Inc()
}

// RecordRunFinished records a run's final status and wall time.
func RecordRunFinished(trigger, status string, duration time.Duration) {
	RunsFinished.WithLabelValues(trigger, status).Inc()
	RunDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	RunsActive.Dec()
}

// RecordUpload records an object storage upload.
func RecordUpload(err error) {
	if err != nil {
		ExportUploads.WithLabelValues("failure").Inc()
		return
	}
	ExportUploads.WithLabelValues("success").Inc()
}

// classifyError maps an error to a low-cardinality label value.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint"):
		return "constraint"
	case strings.Contains(msg, "conflict"):
		return "conflict"
	case strings.Contains(msg, "no rows"):
		return "not_found"
	default:
		return "other"
	}
}
