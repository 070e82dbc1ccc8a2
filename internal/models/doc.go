// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package models defines the data structures shared by the Showtimes packages.

Key Components:

  - Brand: the three supported cinema chains and their fixed report order
  - WorkUnit: one (brand, theater, date) probe planned by the coordinator
  - CrawlLog: an immutable raw response captured by a fetcher
  - ParsedItem and Showtime: transformed schedule items and persisted rows,
    keyed by (brand, theater, screen, start_time)
  - Run, RunConfig and RunSummary: durable run history, the user request
    snapshot and the result document written at the end of a run
  - FetchFailure and ItemError: structured unit and item failure records
  - RegistryTheater: read-only theater registry rows used for region lookup

JSON field names follow the wire contract of the surrounding application
(crawlStartDate, choiceCompany, movieSettings) for the run configuration and
snake_case everywhere else.
*/
package models
