// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package models

import "time"

// RunStatus is the lifecycle state of a pipeline run.
//
// Transitions:
//
//	PENDING -> RUNNING -> SUCCESS | FAILED | STOPPED
//	PENDING | RUNNING -> STOP_REQUESTED -> STOPPED
type RunStatus string

const (
	RunStatusPending       RunStatus = "PENDING"
	RunStatusRunning       RunStatus = "RUNNING"
	RunStatusSuccess       RunStatus = "SUCCESS"
	RunStatusFailed        RunStatus = "FAILED"
	RunStatusStopRequested RunStatus = "STOP_REQUESTED"
	RunStatusStopped       RunStatus = "STOPPED"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusStopped
}

// Active reports whether the run is still owned by a coordinator.
func (s RunStatus) Active() bool {
	return s == RunStatusPending || s == RunStatusRunning || s == RunStatusStopRequested
}

// RunTrigger records what started a run.
type RunTrigger string

const (
	TriggerManual    RunTrigger = "MANUAL"
	TriggerScheduled RunTrigger = "SCHEDULED"
	TriggerTransform RunTrigger = "TRANSFORM"
)

// Run is one durable row of run history.
type Run struct {
	ID            string      `json:"id"`
	Status        RunStatus   `json:"status"`
	Trigger       RunTrigger  `json:"trigger"`
	TriggeredBy   string      `json:"triggered_by"`
	SourceRunID   string      `json:"source_run_id,omitempty"`
	Configuration RunConfig   `json:"configuration"`
	Summary       *RunSummary `json:"result_summary,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	ArtifactPath  string      `json:"artifact_path,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	FinishedAt    *time.Time  `json:"finished_at,omitempty"`
}

// MovieSetting names a tracked movie and the rivals reported alongside it.
type MovieSetting struct {
	MovieName       string   `json:"movieName" validate:"required,max=200"`
	RivalMovieNames []string `json:"rivalMovieNames" validate:"omitempty,dive,max=200"`
}

// BrandChoice toggles individual brands for a run.
type BrandChoice struct {
	BrandA bool `json:"brandA"`
	BrandB bool `json:"brandB"`
	BrandC bool `json:"brandC"`
}

// Enabled returns the selected brands in reporting order.
func (c BrandChoice) Enabled() []Brand {
	brands := make([]Brand, 0, 3)
	if c.BrandA {
		brands = append(brands, BrandA)
	}
	if c.BrandB {
		brands = append(brands, BrandB)
	}
	if c.BrandC {
		brands = append(brands, BrandC)
	}
	return brands
}

// RunConfig is the user request snapshot stored with every run.
type RunConfig struct {
	CrawlStartDate string         `json:"crawlStartDate" validate:"required,datetime=2006-01-02"`
	CrawlEndDate   string         `json:"crawlEndDate" validate:"required,datetime=2006-01-02"`
	ChoiceCompany  BrandChoice    `json:"choiceCompany"`
	MovieSettings  []MovieSetting `json:"movieSettings" validate:"omitempty,dive"`
}

// TargetTitles flattens movie settings into the title filter list.
// An empty result means no filtering.
func (c RunConfig) TargetTitles() []string {
	titles := make([]string, 0, len(c.MovieSettings))
	for _, ms := range c.MovieSettings {
		if ms.MovieName != "" {
			titles = append(titles, ms.MovieName)
		}
		for _, rival := range ms.RivalMovieNames {
			if rival != "" {
				titles = append(titles, rival)
			}
		}
	}
	return titles
}

// BrandSummary aggregates one brand's outcome within a run. TotalUnits counts
// planned (theater, date) fetches for FETCH runs and source crawl logs for
// TRANSFORM runs.
type BrandSummary struct {
	LogsCreated int  `json:"logs_created"`
	TotalUnits  int  `json:"total_units"`
	Failures    int  `json:"failures"`
	RowsTouched int  `json:"rows_touched"`
	ItemErrors  int  `json:"item_errors"`
	Stopped     bool `json:"stopped,omitempty"`
}

// RunSummary is the result_summary document written when a run finishes.
type RunSummary struct {
	Brands               map[Brand]*BrandSummary `json:"brands"`
	Dates                []string                `json:"dates,omitempty"`
	Failures             []FetchFailure          `json:"failures,omitempty"`
	ItemErrors           []ItemError             `json:"item_errors,omitempty"`
	Stopped              bool                    `json:"stopped,omitempty"`
	FailuresArtifactPath string                  `json:"failures_artifact_path,omitempty"`
	UploadedObjects      []string                `json:"uploaded_objects,omitempty"`
}

// NewRunSummary returns a summary with an entry for every given brand.
func NewRunSummary(brands []Brand) *RunSummary {
	s := &RunSummary{Brands: make(map[Brand]*BrandSummary, len(brands))}
	for _, b := range brands {
		s.Brands[b] = &BrandSummary{}
	}
	return s
}

// Brand returns the summary entry for b, creating it if needed.
func (s *RunSummary) Brand(b Brand) *BrandSummary {
	if s.Brands == nil {
		s.Brands = make(map[Brand]*BrandSummary)
	}
	bs, ok := s.Brands[b]
	if !ok {
		bs = &BrandSummary{}
		s.Brands[b] = bs
	}
	return bs
}
