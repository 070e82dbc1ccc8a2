// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package export writes run artifacts: the schedule workbook, the failures
workbook and, optionally, their upload to S3-compatible object storage.

Schedule workbook: one sheet per local date. Rows are grouped by (brand,
theater, screen, date); showtimes of a group are sorted by start time and
pivoted into numbered columns 1회..N회, where N is the largest group. Rows are
ordered BrandA, BrandB, BrandC, then by region code and theater name.

Failures workbook: one sheet per failing date with brand, region, theater,
date, reason and worker columns.

Regions come from the theater registry through RegionResolver. Resolution is
best effort; unmatched theaters get "-".

Workbooks are written to a temporary file and renamed into place, so a
reader never sees a partial artifact.
*/
package export
