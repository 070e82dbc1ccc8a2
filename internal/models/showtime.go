// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package models

import "time"

// ParsedItem is one schedule item extracted from a raw log, ready to upsert.
// (Brand, Theater, Screen, StartTime) is its row identity.
type ParsedItem struct {
	Brand              Brand
	Theater            string
	Screen             string
	StartTime          time.Time
	EndTime            *time.Time
	MovieTitle         string
	Tags               []string
	IsBookingAvailable bool
	TotalSeats         int
	RemainingSeats     int
}

// Showtime is a persisted schedule row.
type Showtime struct {
	Brand              Brand      `json:"brand"`
	Theater            string     `json:"theater"`
	Screen             string     `json:"screen"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	MovieTitle         string     `json:"movie_title"`
	Tags               []string   `json:"tags"`
	IsBookingAvailable bool       `json:"is_booking_available"`
	TotalSeats         int        `json:"total_seats"`
	RemainingSeats     int        `json:"remaining_seats"`
	RawLogID           *int64     `json:"raw_log_ref,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ItemError records one schedule item that could not be parsed.
type ItemError struct {
	Theater     string `json:"theater"`
	Brand       Brand  `json:"brand"`
	Movie       string `json:"movie"`
	Error       string `json:"error"`
	ItemExcerpt string `json:"item_excerpt"`
}

// RegistryTheater is a read-only theater registry row owned by the surrounding app.
type RegistryTheater struct {
	BrandKey    string `json:"brand_key" koanf:"brand_key"`
	DisplayName string `json:"display_name" koanf:"display_name"`
	ExcelAlias  string `json:"excel_alias" koanf:"excel_alias"`
	RegionCode  string `json:"region_code" koanf:"region_code"`
}
