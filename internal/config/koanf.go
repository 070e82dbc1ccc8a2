// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/showtimes/config.yaml",
	"/etc/showtimes/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/showtimes.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Fetch: FetchConfig{
			Workers:           6,
			RequestTimeout:    30 * time.Second,
			NavigationTimeout: 60 * time.Second,
			RetryAttempts:     3,
			RetryBaseDelay:    500 * time.Millisecond,
			RequestsPerSecond: 5,
			UserAgent:         "Mozilla/5.0 (compatible; showtimes/1.0)",
		},
		Brands: BrandsConfig{
			BrandB: BrandBConfig{
				RegionSelector:  "ul.region-list > li > button",
				TheaterSelector: "ul.theater-list > li > a[data-theater-code]",
				Headless:        true,
			},
		},
		Pipeline: PipelineConfig{
			Timezone:     "Asia/Seoul",
			MaxRangeDays: 31,
			HistoryLimit: 20,
		},
		Export: ExportConfig{
			Dir: "/data/artifacts",
			S3: S3Config{
				Region: "auto",
				Prefix: "showtimes",
			},
		},
		Schedule: ScheduleConfig{
			Enabled:   false,
			Cron:      "0 6 * * *",
			DaysAhead: 2,
			Brands:    []string{"brandA", "brandB", "brandC"},
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       60 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources, highest priority last:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BRAND_B_SIGNING_KEY -> brands.brand_b.signing_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"schedule.brands",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps flat environment variable names to koanf paths.
var envMappings = map[string]string{
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"fetch_workers":             "fetch.workers",
	"fetch_request_timeout":     "fetch.request_timeout",
	"fetch_navigation_timeout":  "fetch.navigation_timeout",
	"fetch_retry_attempts":      "fetch.retry_attempts",
	"fetch_retry_base_delay":    "fetch.retry_base_delay",
	"fetch_requests_per_second": "fetch.requests_per_second",
	"fetch_user_agent":          "fetch.user_agent",

	"brand_a_base_url":         "brands.brand_a.base_url",
	"brand_b_discovery_url":    "brands.brand_b.discovery_url",
	"brand_b_api_url":          "brands.brand_b.api_url",
	"brand_b_signing_key":      "brands.brand_b.signing_key",
	"brand_b_region_selector":  "brands.brand_b.region_selector",
	"brand_b_theater_selector": "brands.brand_b.theater_selector",
	"brand_b_chrome_path":      "brands.brand_b.chrome_path",
	"brand_b_headless":         "brands.brand_b.headless",
	"brand_c_base_url":         "brands.brand_c.base_url",

	"pipeline_timezone":       "pipeline.timezone",
	"pipeline_max_range_days": "pipeline.max_range_days",
	"pipeline_history_limit":  "pipeline.history_limit",

	"export_dir":                  "export.dir",
	"export_s3_enabled":           "export.s3.enabled",
	"export_s3_bucket":            "export.s3.bucket",
	"export_s3_endpoint":          "export.s3.endpoint",
	"export_s3_region":            "export.s3.region",
	"export_s3_access_key_id":     "export.s3.access_key_id",
	"export_s3_secret_access_key": "export.s3.secret_access_key",
	"export_s3_prefix":            "export.s3.prefix",

	"schedule_enabled":    "schedule.enabled",
	"schedule_cron":       "schedule.cron",
	"schedule_days_ahead": "schedule.days_ahead",
	"schedule_brands":     "schedule.brands",

	"registry_seed_file": "registry.seed_file",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_per_minute": "server.rate_limit_per_minute",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unknown variables so they are ignored.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
