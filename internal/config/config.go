// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Fetch    FetchConfig    `koanf:"fetch"`
	Brands   BrandsConfig   `koanf:"brands"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Export   ExportConfig   `koanf:"export"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Registry RegistryConfig `koanf:"registry"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// FetchConfig holds settings shared by all brand fetchers.
type FetchConfig struct {
	// Workers is the per-brand worker pool width.
	Workers           int           `koanf:"workers"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	NavigationTimeout time.Duration `koanf:"navigation_timeout"`
	RetryAttempts     int           `koanf:"retry_attempts"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
	// RequestsPerSecond paces requests per brand; 0 disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	UserAgent         string  `koanf:"user_agent"`
}

// BrandsConfig holds per-brand endpoints.
type BrandsConfig struct {
	BrandA BrandAConfig `koanf:"brand_a"`
	BrandB BrandBConfig `koanf:"brand_b"`
	BrandC BrandCConfig `koanf:"brand_c"`
}

// BrandAConfig configures the static-endpoint brand.
type BrandAConfig struct {
	BaseURL string `koanf:"base_url"`
}

// BrandBConfig configures the discovery-driven, signed-API brand.
type BrandBConfig struct {
	// DiscoveryURL is the rendered theater directory page.
	DiscoveryURL    string `koanf:"discovery_url"`
	APIURL          string `koanf:"api_url"`
	SigningKey      string `koanf:"signing_key"`
	RegionSelector  string `koanf:"region_selector"`
	TheaterSelector string `koanf:"theater_selector"`
	ChromePath      string `koanf:"chrome_path"`
	Headless        bool   `koanf:"headless"`
}

// BrandCConfig configures the POST-per-theater brand.
type BrandCConfig struct {
	BaseURL string `koanf:"base_url"`
}

// PipelineConfig holds run coordinator settings.
type PipelineConfig struct {
	Timezone     string `koanf:"timezone"`
	MaxRangeDays int    `koanf:"max_range_days"`
	HistoryLimit int    `koanf:"history_limit"`
}

// ExportConfig holds artifact settings.
type ExportConfig struct {
	Dir string   `koanf:"dir"`
	S3  S3Config `koanf:"s3"`
}

// S3Config configures optional artifact upload to S3-compatible storage.
type S3Config struct {
	Enabled         bool   `koanf:"enabled"`
	Bucket          string `koanf:"bucket"`
	Endpoint        string `koanf:"endpoint"`
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Prefix          string `koanf:"prefix"`
}

// ScheduleConfig configures cron-triggered runs.
type ScheduleConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Cron      string   `koanf:"cron"`
	DaysAhead int      `koanf:"days_ahead"`
	Brands    []string `koanf:"brands"`
}

// RegistryConfig configures the theater registry seed.
type RegistryConfig struct {
	SeedFile string `koanf:"seed_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
