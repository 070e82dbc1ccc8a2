// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/models"
)

// NewFetchers builds one fetcher per brand from configuration.
func NewFetchers(cfg *config.Config, store LogStore) map[models.Brand]Fetcher {
	opts := OptionsFromConfig(&cfg.Fetch)
	return map[models.Brand]Fetcher{
		models.BrandA: NewBrandAFetcher(cfg.Brands.BrandA.BaseURL, nil, store, opts),
		models.BrandB: NewBrandBFetcher(
			cfg.Brands.BrandB.APIURL,
			cfg.Brands.BrandB.SigningKey,
			NewChromeDiscoverer(&cfg.Brands.BrandB, &cfg.Fetch),
			store,
			opts,
		),
		models.BrandC: NewBrandCFetcher(cfg.Brands.BrandC.BaseURL, store, opts),
	}
}
