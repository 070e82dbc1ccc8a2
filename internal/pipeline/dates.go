// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"fmt"
	"time"
)

const (
	// RequestDateLayout is the date format of run requests.
	RequestDateLayout = "2006-01-02"

	unitDateLayout = "20060102"
)

// ExpandDates turns an inclusive YYYY-MM-DD range into YYYYMMDD strings.
// maxDays <= 0 disables the length check.
func ExpandDates(start, end string, maxDays int) ([]string, error) {
	from, err := time.Parse(RequestDateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q", ErrInvalidDateRange, start)
	}
	to, err := time.Parse(RequestDateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("%w: end date %q", ErrInvalidDateRange, end)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidDateRange, end, start)
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if maxDays > 0 && days > maxDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidDateRange, days, maxDays)
	}

	dates := make([]string, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(unitDateLayout))
	}
	return dates, nil
}
