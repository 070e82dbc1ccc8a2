// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/pipeline"
)

const (
	// DefaultHistoryLimit applies when no history limit is configured.
	DefaultHistoryLimit = 20

	// MaxHistoryLimit caps ?limit= on the history endpoint.
	MaxHistoryLimit = 500

	// maxRequestBody bounds run request bodies.
	maxRequestBody = 1 << 20
)

// RunController starts, stops and re-transforms runs. *pipeline.Coordinator
// satisfies it.
type RunController interface {
	StartRun(ctx context.Context, req pipeline.StartRequest) (*models.Run, error)
	StopRun(ctx context.Context, runID string) error
	TransformRun(ctx context.Context, sourceRunID, triggeredBy string) (*models.Run, error)
}

// RunHistory reads run history. *database.DB satisfies it.
type RunHistory interface {
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*models.Run, error)
	Ping(ctx context.Context) error
}

// Handler serves the run-control endpoints.
type Handler struct {
	runs         RunController
	history      RunHistory
	historyLimit int
	startTime    time.Time
}

// NewHandler creates a Handler. historyLimit <= 0 selects DefaultHistoryLimit.
func NewHandler(runs RunController, history RunHistory, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if historyLimit > MaxHistoryLimit {
		historyLimit = MaxHistoryLimit
	}
	return &Handler{
		runs:         runs,
		history:      history,
		historyLimit: historyLimit,
		startTime:    time.Now(),
	}
}

// writeRunError maps coordinator and store errors onto the response envelope.
func writeRunError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrRunNotFound):
		rw.NotFound("Run not found")
	case errors.Is(err, database.ErrRunNotRunning):
		rw.Error(http.StatusBadRequest, ErrCodeNotRunning, "Run is not running")
	case errors.Is(err, pipeline.ErrSourceRunActive):
		rw.Conflict("Source run is still active")
	case errors.Is(err, pipeline.ErrNoBrandsSelected), errors.Is(err, pipeline.ErrInvalidDateRange):
		rw.ValidationError(err.Error(), nil)
	case errors.Is(err, pipeline.ErrCoordinatorClosed):
		rw.ServiceUnavailable("Server is shutting down")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Run request failed")
		rw.InternalError("Internal server error")
	}
}
