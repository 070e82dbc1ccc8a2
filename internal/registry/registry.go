// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

// Package registry loads the optional theater registry seed file into the
// database. The registry is otherwise owned by the surrounding application.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/models"
)

// Store is the registry write surface of the database.
type Store interface {
	ReplaceRegistryTheaters(ctx context.Context, brandKey string, theaters []models.RegistryTheater) error
}

// LoadSeedFile parses a YAML seed of the form
//
//	theaters:
//	  - brand_key: brandA
//	    display_name: 강남
//	    excel_alias: CGV 강남
//	    region_code: "01"
func LoadSeedFile(path string) ([]models.RegistryTheater, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load registry seed %s: %w", path, err)
	}

	var theaters []models.RegistryTheater
	if err := k.Unmarshal("theaters", &theaters); err != nil {
		return nil, fmt.Errorf("failed to decode registry seed %s: %w", path, err)
	}

	for i := range theaters {
		t := &theaters[i]
		t.BrandKey = strings.TrimSpace(t.BrandKey)
		t.DisplayName = strings.TrimSpace(t.DisplayName)
		if t.BrandKey == "" || t.DisplayName == "" {
			return nil, fmt.Errorf("registry seed %s: entry %d needs brand_key and display_name", path, i)
		}
		if !models.Brand(t.BrandKey).Valid() {
			return nil, fmt.Errorf("registry seed %s: entry %d has unknown brand %q", path, i, t.BrandKey)
		}
	}
	return theaters, nil
}

// Seed replaces the registry rows of every brand present in the seed file.
// Brands absent from the file keep their rows.
func Seed(ctx context.Context, store Store, path string) (int, error) {
	theaters, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}

	byBrand := make(map[string][]models.RegistryTheater)
	for _, t := range theaters {
		byBrand[t.BrandKey] = append(byBrand[t.BrandKey], t)
	}

	for _, brand := range models.AllBrands {
		rows, ok := byBrand[string(brand)]
		if !ok {
			continue
		}
		if err := store.ReplaceRegistryTheaters(ctx, string(brand), rows); err != nil {
			return 0, err
		}
		logging.Info().Str("brand", string(brand)).Int("theaters", len(rows)).Msg("Seeded theater registry")
	}
	return len(theaters), nil
}
