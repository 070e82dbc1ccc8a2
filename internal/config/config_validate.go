// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Workers < 1 || c.Fetch.Workers > 16 {
		return fmt.Errorf("FETCH_WORKERS must be between 1 and 16, got %d", c.Fetch.Workers)
	}
	if c.Fetch.RetryAttempts < 1 || c.Fetch.RetryAttempts > 10 {
		return fmt.Errorf("FETCH_RETRY_ATTEMPTS must be between 1 and 10, got %d", c.Fetch.RetryAttempts)
	}
	if c.Fetch.RequestTimeout <= 0 {
		return fmt.Errorf("FETCH_REQUEST_TIMEOUT must be positive")
	}
	if c.Fetch.NavigationTimeout <= 0 {
		return fmt.Errorf("FETCH_NAVIGATION_TIMEOUT must be positive")
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("FETCH_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("PIPELINE_TIMEZONE %q is not a valid IANA zone: %w", c.Pipeline.Timezone, err)
	}
	if c.Pipeline.MaxRangeDays < 1 {
		return fmt.Errorf("PIPELINE_MAX_RANGE_DAYS must be at least 1")
	}
	if c.Pipeline.HistoryLimit < 1 {
		return fmt.Errorf("PIPELINE_HISTORY_LIMIT must be at least 1")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.Dir == "" {
		return fmt.Errorf("EXPORT_DIR is required")
	}
	if !c.Export.S3.Enabled {
		return nil
	}
	if c.Export.S3.Bucket == "" {
		return fmt.Errorf("EXPORT_S3_BUCKET is required when EXPORT_S3_ENABLED=true")
	}
	if c.Export.S3.AccessKeyID == "" || c.Export.S3.SecretAccessKey == "" {
		return fmt.Errorf("EXPORT_S3_ACCESS_KEY_ID and EXPORT_S3_SECRET_ACCESS_KEY are required when EXPORT_S3_ENABLED=true")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("SCHEDULE_CRON %q is invalid: %w", c.Schedule.Cron, err)
	}
	if c.Schedule.DaysAhead < 0 || c.Schedule.DaysAhead >= c.Pipeline.MaxRangeDays {
		return fmt.Errorf("SCHEDULE_DAYS_AHEAD must be between 0 and %d", c.Pipeline.MaxRangeDays-1)
	}
	if len(c.Schedule.Brands) == 0 {
		return fmt.Errorf("SCHEDULE_BRANDS must name at least one brand")
	}
	for _, b := range c.Schedule.Brands {
		switch b {
		case "brandA", "brandB", "brandC":
		default:
			return fmt.Errorf("SCHEDULE_BRANDS contains unknown brand %q", b)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
