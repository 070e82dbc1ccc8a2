// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/pipeline"
)

// fakeRuns records controller calls and returns canned results.
type fakeRuns struct {
	mu         sync.Mutex
	started    []pipeline.StartRequest
	stopped    []string
	transforms []string
	actors     []string

	startErr     error
	stopErr      error
	transformErr error
}

func (f *fakeRuns) StartRun(_ context.Context, req pipeline.StartRequest) (*models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, req)
	return &models.Run{ID: "run-new", Status: models.RunStatusPending, Trigger: req.Trigger}, nil
}

func (f *fakeRuns) StopRun(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, runID)
	return nil
}

func (f *fakeRuns) TransformRun(_ context.Context, sourceRunID, triggeredBy string) (*models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transformErr != nil {
		return nil, f.transformErr
	}
	f.transforms = append(f.transforms, sourceRunID)
	f.actors = append(f.actors, triggeredBy)
	return &models.Run{ID: "run-transform", Status: models.RunStatusPending, Trigger: models.TriggerTransform, SourceRunID: sourceRunID}, nil
}

// fakeHistory serves runs from a map.
type fakeHistory struct {
	runs      map[string]*models.Run
	list      []*models.Run
	listErr   error
	pingErr   error
	lastLimit int
}

func (f *fakeHistory) GetRun(_ context.Context, id string) (*models.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, database.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeHistory) ListRecentRuns(_ context.Context, limit int) ([]*models.Run, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.list) > limit {
		return f.list[:limit], nil
	}
	return f.list, nil
}

func (f *fakeHistory) Ping(context.Context) error {
	return f.pingErr
}

func newTestServer(t *testing.T, runs *fakeRuns, history *fakeHistory, mw *ChiMiddleware) http.Handler {
	t.Helper()
	if mw == nil {
		mw = NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	}
	return NewRouter(NewHandler(runs, history, 20), mw).Setup()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		RequestID  string          `json:"request_id"`
		Pagination *PaginationMeta `json:"pagination"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("success = true on an error response")
	}
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
	return env
}

const validRunBody = `{
	"crawlStartDate": "2026-02-01",
	"crawlEndDate": "2026-02-03",
	"choiceCompany": {"brandA": true, "brandB": false, "brandC": true},
	"movieSettings": [{"movieName": "주토피아 2", "rivalMovieNames": ["탑건"]}]
}`
