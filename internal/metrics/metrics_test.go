// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantType  string
	}{
		{"successful insert", "INSERT", "crawl_logs", nil, ""},
		{"constraint violation", "INSERT", "showtimes", errors.New("Constraint Error: duplicate key"), "constraint"},
		{"canceled", "SELECT", "runs", fmt.Errorf("failed to query: %w", context.Canceled), "canceled"},
		{"no rows", "SELECT", "runs", sql.ErrNoRows, "not_found"},
		{"other", "UPDATE", "runs", errors.New("disk full"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before float64
			if tt.err != nil {
				before = testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantType))
			}

			RecordDBQuery(tt.operation, tt.table, 5*time.Millisecond, tt.err)

			if tt.err == nil {
				return
			}
			after := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantType))
			if after != before+1 {
				t.Errorf("error counter for %s = %v, want %v", tt.wantType, after, before+1)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/runs", "202"))
	RecordAPIRequest("POST", "/api/v1/runs", "202", 12*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/runs", "202"))
	if after != before+1 {
		t.Errorf("api_requests_total = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordFetchUnit(t *testing.T) {
	before := testutil.ToFloat64(FetchUnitsTotal.WithLabelValues("brandA", "failure"))
	RecordFetchUnit("brandA", "failure", time.Second)
	RecordFetchUnit("brandA", "abandoned", 0)
	if got := testutil.ToFloat64(FetchUnitsTotal.WithLabelValues("brandA", "failure")); got != before+1 {
		t.Errorf("fetch_units_total{failure} = %v, want %v", got, before+1)
	}
}

func TestRecordTransform(t *testing.T) {
	rowsBefore := testutil.ToFloat64(TransformRowsTouched.WithLabelValues("brandC"))
	errsBefore := testutil.ToFloat64(TransformItemErrors.WithLabelValues("brandC"))

	RecordTransform("brandC", 7, 2, 30*time.Millisecond)

	if got := testutil.ToFloat64(TransformRowsTouched.WithLabelValues("brandC")); got != rowsBefore+7 {
		t.Errorf("rows touched = %v, want %v", got, rowsBefore+7)
	}
	if got := testutil.ToFloat64(TransformItemErrors.WithLabelValues("brandC")); got != errsBefore+2 {
		t.Errorf("item errors = %v, want %v", got, errsBefore+2)
	}
}

func TestRunLifecycleMetrics(t *testing.T) {
	active := testutil.ToFloat64(RunsActive)
	finished := testutil.ToFloat64(RunsFinished.WithLabelValues("MANUAL", "STOPPED"))

	RecordRunStarted("MANUAL")
	if got := testutil.ToFloat64(RunsActive); got != active+1 {
		t.Errorf("runs active = %v, want %v", got, active+1)
	}
	RecordRunFinished("MANUAL", "STOPPED", 3*time.Second)
	if got := testutil.ToFloat64(RunsActive); got != active {
		t.Errorf("runs active = %v, want %v", got, active)
	}
	if got := testutil.ToFloat64(RunsFinished.WithLabelValues("MANUAL", "STOPPED")); got != finished+1 {
		t.Errorf("runs finished = %v, want %v", got, finished+1)
	}
}

func TestRecordUpload(t *testing.T) {
	ok := testutil.ToFloat64(ExportUploads.WithLabelValues("success"))
	failed := testutil.ToFloat64(ExportUploads.WithLabelValues("failure"))

	RecordUpload(nil)
	RecordUpload(errors.New("access denied"))

	if got := testutil.ToFloat64(ExportUploads.WithLabelValues("success")); got != ok+1 {
		t.Errorf("success uploads = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(ExportUploads.WithLabelValues("failure")); got != failed+1 {
		t.Errorf("failed uploads = %v, want %v", got, failed+1)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				RecordDBQuery("SELECT", "showtimes", time.Duration(j)*time.Millisecond, nil)
				RecordFetchRetry("brandB")
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}
	wg.Wait()
}
