// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/export"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/pipeline"
	"github.com/tomtom215/showtimes/internal/validation"
)

// xlsxContentType is the media type of exported workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RunAccepted is returned when a run has been recorded and launched.
type RunAccepted struct {
	RunID       string           `json:"run_id"`
	Status      models.RunStatus `json:"status"`
	SourceRunID string           `json:"source_run_id,omitempty"`
}

// StopAccepted is returned when a stop has been requested.
type StopAccepted struct {
	OK    bool   `json:"ok"`
	RunID string `json:"run_id"`
}

// StartRun handles POST /api/v1/runs.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var cfg models.RunConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&cfg); err != nil {
		rw.BadRequest("Invalid JSON request body")
		return
	}
	if verr := validation.ValidateRunConfig(&cfg); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	run, err := h.runs.StartRun(r.Context(), pipeline.StartRequest{
		Config:      cfg,
		Trigger:     models.TriggerManual,
		TriggeredBy: r.Header.Get(ActorHeader),
	})
	if err != nil {
		writeRunError(rw, r, err)
		return
	}

	rw.Created(RunAccepted{RunID: run.ID, Status: models.RunStatusPending})
}

// StopRun handles POST /api/v1/runs/{id}/stop.
func (h *Handler) StopRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	if err := h.runs.StopRun(r.Context(), id); err != nil {
		writeRunError(rw, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("run_id", id).
		Str("actor", r.Header.Get(ActorHeader)).
		Msg("Stop requested")
	rw.Success(StopAccepted{OK: true, RunID: id})
}

// TransformRun handles POST /api/v1/runs/{id}/transform.
func (h *Handler) TransformRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sourceID := chi.URLParam(r, "id")

	run, err := h.runs.TransformRun(r.Context(), sourceID, r.Header.Get(ActorHeader))
	if err != nil {
		writeRunError(rw, r, err)
		return
	}

	rw.Created(RunAccepted{
		RunID:       run.ID,
		Status:      models.RunStatusPending,
		SourceRunID: run.SourceRunID,
	})
}

// ListRuns handles GET /api/v1/runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rw.BadRequest("limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	runs, err := h.history.ListRecentRuns(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}

	rw.SuccessWithPagination(runs, &PaginationMeta{Count: len(runs), Limit: limit})
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	run, err := h.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRunError(rw, r, err)
		return
	}
	rw.Success(run)
}

// DownloadArtifact handles GET /api/v1/runs/{id}/artifact. ?kind=failures
// selects the failures workbook instead of the schedule.
func (h *Handler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = export.KindSchedule
	}
	if kind != export.KindSchedule && kind != export.KindFailures {
		rw.BadRequest("kind must be schedule or failures")
		return
	}

	run, err := h.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRunError(rw, r, err)
		return
	}

	path := run.ArtifactPath
	if kind == export.KindFailures {
		path = ""
		if run.Summary != nil {
			path = run.Summary.FailuresArtifactPath
		}
	}
	if path == "" {
		rw.NotFound("Artifact not available for this run")
		return
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Ctx(r.Context()).Warn().Str("run_id", run.ID).Str("path", path).Msg("Artifact file missing")
		rw.NotFound("Artifact file no longer exists")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", path).Msg("Failed to open artifact")
		rw.InternalError("Failed to read artifact")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", path).Msg("Failed to stat artifact")
		rw.InternalError("Failed to read artifact")
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}
