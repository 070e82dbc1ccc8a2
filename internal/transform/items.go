// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/models"
)

// rawShowtime is the brand-independent view of one item before
// normalization.
type rawShowtime struct {
	title     string
	screen    string
	start     time.Time
	end       *time.Time
	total     int
	remaining int
}

// itemTitle extracts only the title, so the target filter can run before
// any time parsing.
func itemTitle(brand models.Brand, item json.RawMessage) (string, error) {
	switch brand {
	case models.BrandA:
		var it brandAItem
		if err := json.Unmarshal(item, &it); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return string(it.MovieNm), nil
	case models.BrandB:
		var it brandBItem
		if err := json.Unmarshal(item, &it); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return string(it.MovieName), nil
	case models.BrandC:
		var it brandCItem
		if err := json.Unmarshal(item, &it); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return string(it.MovieNm), nil
	default:
		return "", fmt.Errorf("unsupported brand %q", brand)
	}
}

// extractItem decodes one item of brand. queryDate (YYYYMMDD) supplies the
// day when the item carries none.
func extractItem(brand models.Brand, item json.RawMessage, queryDate string, loc *time.Location) (*rawShowtime, error) {
	switch brand {
	case models.BrandA:
		var it brandAItem
		if err := json.Unmarshal(item, &it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return lateNightShowtime(string(it.MovieNm), string(it.ScrnNm), firstNonEmpty(string(it.ScnYmd), queryDate),
			string(it.ScnsrtTm), string(it.ScnendTm), int(it.TotSeatCnt), int(it.RestSeatCnt), loc)

	case models.BrandB:
		var it brandBItem
		if err := json.Unmarshal(item, &it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return brandBShowtime(&it, queryDate, loc)

	case models.BrandC:
		var it brandCItem
		if err := json.Unmarshal(item, &it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
		}
		return lateNightShowtime(string(it.MovieNm), string(it.TheabExpoNm), firstNonEmpty(string(it.PlayDe), queryDate),
			string(it.PlayStartTime), string(it.PlayEndTime), int(it.TotSeatCnt), int(it.RestSeatCnt), loc)

	default:
		return nil, fmt.Errorf("unsupported brand %q", brand)
	}
}

// lateNightShowtime builds a showtime for the brands that encode times as
// HHMM on a base date, with hours >= 24 meaning the next day.
func lateNightShowtime(title, screen, date, startClock, endClock string, total, remaining int, loc *time.Location) (*rawShowtime, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: movie title", ErrMissingField)
	}
	if startClock == "" {
		return nil, fmt.Errorf("%w: start time", ErrMissingField)
	}
	start, err := ParseLateNightTime(date, startClock, loc)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}

	var end *time.Time
	if endClock != "" {
		e, err := ParseLateNightTime(date, endClock, loc)
		if err != nil {
			return nil, fmt.Errorf("end time: %w", err)
		}
		end = &e
	}

	return &rawShowtime{
		title:     title,
		screen:    screen,
		start:     start,
		end:       fixEnd(start, end),
		total:     total,
		remaining: remaining,
	}, nil
}

func brandBShowtime(it *brandBItem, queryDate string, loc *time.Location) (*rawShowtime, error) {
	title := string(it.MovieName)
	if title == "" {
		return nil, fmt.Errorf("%w: movie title", ErrMissingField)
	}
	if it.StartTime == "" {
		return nil, fmt.Errorf("%w: start time", ErrMissingField)
	}

	day := firstNonEmpty(string(it.RepresentationDate), queryDate)
	start, err := ParseBrandBTime(string(it.StartTime), day, loc)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}

	var end *time.Time
	if it.EndTime != "" {
		// A bare end clock belongs to the start's day.
		e, err := ParseBrandBTime(string(it.EndTime), start.Format("20060102"), loc)
		if err != nil {
			return nil, fmt.Errorf("end time: %w", err)
		}
		end = &e
	}

	return &rawShowtime{
		title:     title,
		screen:    string(it.ScreenName),
		start:     start,
		end:       fixEnd(start, end),
		total:     int(it.TotalSeat),
		remaining: int(it.RemainSeat),
	}, nil
}

// clampSeats coerces negatives to zero and caps remaining at a positive total.
func clampSeats(total, remaining int) (int, int) {
	if total < 0 {
		total = 0
	}
	if remaining < 0 {
		remaining = 0
	}
	if total > 0 && remaining > total {
		remaining = total
	}
	return total, remaining
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
