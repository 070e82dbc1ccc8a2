// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/showtimes/internal/metrics"
)

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, nil)

	if rec := do(t, srv, http.MethodGet, "/api/v1/health/live", "", nil); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/v1/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	down := newTestServer(t, &fakeRuns{}, &fakeHistory{pingErr: errors.New("closed")}, nil)
	assertError(t, do(t, down, http.MethodGet, "/api/v1/health/ready", "", nil), http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestHealthReady_NoDatabase(t *testing.T) {
	srv := NewRouter(NewHandler(&fakeRuns{}, nil, 0), NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})).Setup()
	assertError(t, do(t, srv, http.MethodGet, "/api/v1/health/ready", "", nil), http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, nil)
	do(t, srv, http.MethodGet, "/api/v1/health/live", "", nil)

	rec := do(t, srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("exposition missing api_requests_total")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, nil)
	assertError(t, do(t, srv, http.MethodGet, "/api/v1/nothing", "", nil), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, do(t, srv, http.MethodDelete, "/api/v1/runs/run-1", "", nil), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestRequestIDWithLogging(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, nil)

	t.Run("echoes incoming id", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/v1/runs/missing", "", map[string]string{"X-Request-ID": "req-123"})
		if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got)
		}
		env := decodeEnvelope(t, rec)
		if env.Error.RequestID != "req-123" || env.Meta.RequestID != "req-123" {
			t.Errorf("request ids = %q/%q, want req-123", env.Error.RequestID, env.Meta.RequestID)
		}
	})

	t.Run("generates id", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/v1/health/live", "", nil)
		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("X-Request-ID not set")
		}
		if env := decodeEnvelope(t, rec); env.Meta.RequestID != id {
			t.Errorf("meta request_id = %q, want %q", env.Meta.RequestID, id)
		}
	})
}

func TestRateLimit(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, mw)

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodGet, "/api/v1/runs", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/runs", "", nil)
	assertError(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)

	if testutil.CollectAndCount(metrics.APIRateLimitHits) == 0 {
		t.Error("rate limit hit not recorded")
	}

	// Health probes have their own limit.
	if rec := do(t, srv, http.MethodGet, "/api/v1/health/live", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 1,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	}))

	for i := 0; i < 5; i++ {
		if rec := do(t, srv, http.MethodGet, "/api/v1/runs", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://app.example.com"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type", ActorHeader},
		RateLimitDisabled:  true,
	})
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, mw)

	rec := do(t, srv, http.MethodOptions, "/api/v1/runs", "", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": "POST",
	})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = do(t, srv, http.MethodOptions, "/api/v1/runs", "", map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": "POST",
	})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, &fakeHistory{}, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/runs", "", nil)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestNewHandler_HistoryLimitBounds(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultHistoryLimit},
		{-1, DefaultHistoryLimit},
		{50, 50},
		{MaxHistoryLimit + 1, MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := NewHandler(nil, nil, tt.in).historyLimit; got != tt.want {
			t.Errorf("NewHandler(limit=%d).historyLimit = %d, want %d", tt.in, got, tt.want)
		}
	}
}
