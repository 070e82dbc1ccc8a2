// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// WorkUnit is one (theater, date) probe planned for a brand. Never persisted.
type WorkUnit struct {
	Brand       Brand
	Date        string // YYYYMMDD
	TheaterID   string
	TheaterName string
}

// Theater is a brand-local cinema location discovered by a fetcher.
type Theater struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// CrawlStatusSuccess is the status of every stored crawl log. Failed fetches
// are reported in the run summary and never stored.
const CrawlStatusSuccess = "success"

// CrawlLog is an immutable raw response captured from a brand backend.
type CrawlLog struct {
	ID          int64           `json:"id"`
	Brand       Brand           `json:"brand"`
	QueryDate   string          `json:"query_date"`
	TheaterID   string          `json:"theater_id"`
	TheaterName string          `json:"theater_display_name"`
	Payload     json.RawMessage `json:"response_payload"`
	Status      string          `json:"status"`
	RunID       string          `json:"run_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FetchFailure records one unit that could not be harvested.
type FetchFailure struct {
	Brand   Brand  `json:"brand"`
	Theater string `json:"theater"`
	Date    string `json:"date"`
	Reason  string `json:"reason"`
	Worker  string `json:"worker"`
}
