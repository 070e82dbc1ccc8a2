// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package transform turns raw crawl logs into canonical schedule rows.

For each log the Transformer walks the brand's payload shape to the list of
schedule items, parses every item into a models.ParsedItem and hands the
batch to the ScheduleStore, which upserts it in one transaction keyed on
(brand, theater, screen, start_time).

Parsing is tolerant. A payload stored as a JSON string is decoded again, a
payload that cannot be decoded yields no items, and an item that cannot be
parsed is reported as a models.ItemError while the remaining items of the log
still go through.

Time Handling:

BrandA and BrandC encode late-night showtimes with hours of 24 or more
("2405" is 00:05 on the next day). BrandB sends wall-clock timestamps in
several layouts. All brands shift an end time earlier than its start time by
one day. Every timestamp is interpreted in the configured zone.

Title Identity:

A TitleMap shared by all brands of a run maps NormalizeTitle keys to the
first clean title seen. Titles that differ only in punctuation collapse to
one canonical spelling; first seen wins.
*/
package transform
