// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package models

// Brand identifies a cinema chain with its own scheduling backend.
type Brand string

// Supported brands. The string values double as the keys used in the
// run configuration (choiceCompany) and in every persisted row.
const (
	BrandA Brand = "brandA"
	BrandB Brand = "brandB"
	BrandC Brand = "brandC"
)

// AllBrands lists the brands in their fixed reporting order.
var AllBrands = []Brand{BrandA, BrandB, BrandC}

// String implements fmt.Stringer.
func (b Brand) String() string {
	return string(b)
}

// Valid reports whether b is one of the supported brands.
func (b Brand) Valid() bool {
	switch b {
	case BrandA, BrandB, BrandC:
		return true
	default:
		return false
	}
}

// SortRank orders brands for reports: BrandA, BrandB, BrandC, then anything else.
func (b Brand) SortRank() int {
	switch b {
	case BrandA:
		return 0
	case BrandB:
		return 1
	case BrandC:
		return 2
	default:
		return 3
	}
}
