// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/showtimes/internal/logging"
)

// DefaultZone is the zone schedule times are interpreted in.
const DefaultZone = "Asia/Seoul"

// LoadZone loads name, falling back to a fixed UTC+9 zone when the tz
// database is unavailable.
func LoadZone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logging.Warn().Err(err).Str("zone", name).Msg("Time zone database unavailable, using fixed +09:00")
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// ParseLateNightTime combines a YYYYMMDD date with an HHMM or HH:MM clock
// value. Hours of 24 and above roll into the following days, so
// ("20260131", "2405") is 2026-02-01 00:05.
func ParseLateNightTime(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := parseCompactDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}

	digits := strings.NewReplacer(":", "", " ", "").Replace(clock)
	if len(digits) == 3 {
		digits = "0" + digits
	}
	if len(digits) != 4 || !allDigits(digits) {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrUnparseableTime, clock)
	}
	hours, _ := strconv.Atoi(digits[:2])
	minutes, _ := strconv.Atoi(digits[2:])
	if minutes > 59 {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrUnparseableTime, clock)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, loc), nil
}

// brandBLayouts are tried in order for BrandB StartTime/EndTime values.
var brandBLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102 15:04:05",
	"20060102 15:04",
}

// ParseBrandBTime parses a BrandB timestamp. Accepted forms, in order: RFC
// 3339, the layouts in brandBLayouts, and a bare HH:MM[:SS] which is placed
// on fallbackDate (YYYYMMDD or YYYY-MM-DD).
func ParseBrandBTime(raw, fallbackDate string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", ErrMissingField)
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range brandBLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}

	if isBareClock(raw) {
		day, err := parseCompactDate(fallbackDate, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bare time %q without a usable date", ErrUnparseableTime, raw)
		}
		layout := "15:04"
		if strings.Count(raw, ":") == 2 {
			layout = "15:04:05"
		}
		clock, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
}

// fixEnd shifts an end time earlier than start by one day.
func fixEnd(start time.Time, end *time.Time) *time.Time {
	if end == nil {
		return nil
	}
	if end.Before(start) {
		shifted := end.AddDate(0, 0, 1)
		return &shifted
	}
	return end
}

// parseCompactDate parses YYYYMMDD, also accepting -, . or / separators.
func parseCompactDate(s string, loc *time.Location) (time.Time, error) {
	compact := strings.NewReplacer("-", "", ".", "", "/", "").Replace(strings.TrimSpace(s))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	t, err := time.ParseInLocation("20060102", compact, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrUnparseableTime, s)
	}
	return t, nil
}

func isBareClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 2 || !allDigits(p) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
