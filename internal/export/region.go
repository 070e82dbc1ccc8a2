// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package export

import (
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/normalize"
)

// UnknownRegion is reported for theaters missing from the registry.
const UnknownRegion = "-"

// minStemRunes is the shortest stem allowed in a substring match.
const minStemRunes = 2

// brandPrefixes are the normalized name prefixes stripped before fuzzy matching.
var brandPrefixes = map[models.Brand][]string{
	models.BrandA: {"branda"},
	models.BrandB: {"brandb"},
	models.BrandC: {"brandc"},
}

type registryEntry struct {
	keys   []string // normalized display name and excel alias
	region string
}

// RegionResolver maps (brand, theater display name) to a region code.
type RegionResolver struct {
	entries map[models.Brand][]registryEntry
}

// NewRegionResolver indexes registry rows by brand.
func NewRegionResolver(theaters []models.RegistryTheater) *RegionResolver {
	r := &RegionResolver{entries: make(map[models.Brand][]registryEntry)}
	for _, t := range theaters {
		region := strings.TrimSpace(t.RegionCode)
		if region == "" {
			region = UnknownRegion
		}
		e := registryEntry{region: region}
		for _, name := range []string{t.DisplayName, t.ExcelAlias} {
			if k := normalize.NormalizeTitle(name); k != "" {
				e.keys = append(e.keys, k)
			}
		}
		if len(e.keys) == 0 {
			continue
		}
		brand := models.Brand(t.BrandKey)
		r.entries[brand] = append(r.entries[brand], e)
	}
	return r
}

// Resolve returns the region code of theater, or UnknownRegion.
//
// Matching order: exact normalized name; then, with brand prefixes stripped
// from both sides, exact again; then substring containment in either
// direction with stems of at least two characters.
func (r *RegionResolver) Resolve(brand models.Brand, theater string) string {
	if r == nil {
		return UnknownRegion
	}
	entries := r.entries[brand]
	key := normalize.NormalizeTitle(theater)
	if key == "" || len(entries) == 0 {
		return UnknownRegion
	}

	for _, e := range entries {
		for _, k := range e.keys {
			if k == key {
				return e.region
			}
		}
	}

	stem := stripBrandPrefix(brand, key)
	if stem == "" {
		return UnknownRegion
	}
	for _, e := range entries {
		for _, k := range e.keys {
			if stripBrandPrefix(brand, k) == stem {
				return e.region
			}
		}
	}

	if utf8.RuneCountInString(stem) < minStemRunes {
		return UnknownRegion
	}
	for _, e := range entries {
		for _, k := range e.keys {
			other := stripBrandPrefix(brand, k)
			if utf8.RuneCountInString(other) < minStemRunes {
				continue
			}
			if strings.Contains(other, stem) || strings.Contains(stem, other) {
				return e.region
			}
		}
	}
	return UnknownRegion
}

func stripBrandPrefix(brand models.Brand, key string) string {
	for _, p := range brandPrefixes[brand] {
		if strings.HasPrefix(key, p) {
			return key[len(p):]
		}
	}
	return key
}
