// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package pipeline drives pipeline runs end to end.

A run moves through the states recorded in the runs table:

	PENDING -> RUNNING -> SUCCESS | FAILED | STOPPED
	PENDING | RUNNING -> STOP_REQUESTED -> STOPPED

The Coordinator creates the PENDING row, returns immediately and executes the
run on a background goroutine:

 1. Expand the requested date range into YYYYMMDD strings.
 2. Fetch every enabled brand in parallel. Each brand runs its own bounded
    worker pool; the stop check reads the run row between units.
 3. Transform the crawl logs the run produced, sharing one TitleMap.
 4. Export the schedule workbook, plus a failures workbook when any unit
    failed, and optionally upload both.
 5. Record the terminal status and summary.

Stopping is cooperative. StopRun only flips the row to STOP_REQUESTED; the
coordinator notices at the next unit or log boundary, skips the remaining
phases and finishes the run as STOPPED. In-flight requests are never cut.

TransformRun re-processes the crawl logs of a finished run under a new
TRANSFORM run without fetching anything.

The Scheduler triggers SCHEDULED runs from a cron expression and skips a tick
while a previous scheduled run is still active.
*/
package pipeline
