// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package config provides centralized configuration management for Showtimes.

Configuration is layered with Koanf, highest priority last:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/showtimes/config.yaml)
 3. Environment variables (flat names such as FETCH_WORKERS or EXPORT_S3_BUCKET)

Comma-separated environment values for list settings (CORS_ORIGINS,
SCHEDULE_BRANDS) are split into slices. The merged result is validated
before it is returned, so callers never see a half-valid Config.

# Usage

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.New(&cfg.Database)
*/
package config
