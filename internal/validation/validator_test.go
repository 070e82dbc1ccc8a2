// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/showtimes/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func validRunConfig() models.RunConfig {
	return models.RunConfig{
		CrawlStartDate: "2026-02-01",
		CrawlEndDate:   "2026-02-03",
		ChoiceCompany:  models.BrandChoice{BrandA: true, BrandC: true},
		MovieSettings: []models.MovieSetting{
			{MovieName: "주토피아 2", RivalMovieNames: []string{"탑건"}},
		},
	}
}

func TestValidateRunConfig_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RunConfig)
	}{
		{"full request", func(*models.RunConfig) {}},
		{"single day", func(c *models.RunConfig) { c.CrawlEndDate = c.CrawlStartDate }},
		{"no movie settings", func(c *models.RunConfig) { c.MovieSettings = nil }},
		{"200 rune title", func(c *models.RunConfig) { c.MovieSettings[0].MovieName = strings.Repeat("가", 200) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)
			if err := ValidateRunConfig(&cfg); err != nil {
				t.Errorf("ValidateRunConfig() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRunConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RunConfig)
		wantField string
		wantTag   string
	}{
		{"missing start", func(c *models.RunConfig) { c.CrawlStartDate = "" }, "crawlStartDate", "required"},
		{"compact date", func(c *models.RunConfig) { c.CrawlEndDate = "20260203" }, "crawlEndDate", "datetime"},
		{"impossible date", func(c *models.RunConfig) { c.CrawlStartDate = "2026-02-30" }, "crawlStartDate", "datetime"},
		{"reversed range", func(c *models.RunConfig) { c.CrawlStartDate = "2026-02-05" }, "crawlEndDate", "daterange"},
		{"no brands", func(c *models.RunConfig) { c.ChoiceCompany = models.BrandChoice{} }, "choiceCompany", "brands"},
		{"empty movie name", func(c *models.RunConfig) { c.MovieSettings[0].MovieName = "" }, "movieName", "required"},
		{"long rival name", func(c *models.RunConfig) {
			c.MovieSettings[0].RivalMovieNames = []string{strings.Repeat("a", 201)}
		}, "rivalMovieNames[0]", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)

			err := ValidateRunConfig(&cfg)
			if err == nil {
				t.Fatal("ValidateRunConfig() should have returned an error")
			}
			found := false
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, err.Errors())
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	cfg := validRunConfig()
	cfg.CrawlStartDate = "2026-02-05"

	err := ValidateRunConfig(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != ErrorCode {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrorCode)
	}
	if apiErr.Message != "crawlEndDate must not be before crawlStartDate" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "crawlEndDate" || apiErr.Details["tag"] != "daterange" {
		t.Errorf("Details = %v", apiErr.Details)
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	cfg := models.RunConfig{CrawlStartDate: "2026-02-01"}

	err := ValidateRunConfig(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors, got %v", apiErr.Details)
	}
	for _, want := range []string{"crawlEndDate is required", "choiceCompany must enable at least one brand"} {
		if !strings.Contains(apiErr.Message, want) {
			t.Errorf("Message %q missing %q", apiErr.Message, want)
		}
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() should join messages: %q", err.Error())
	}
}

func TestToAPIError_Empty(t *testing.T) {
	err := &RequestValidationError{}
	if got := err.ToAPIError(); got.Code != ErrorCode || got.Message != "Validation failed" {
		t.Errorf("ToAPIError() = %+v", got)
	}
	if err.Error() != "validation failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RunConfig)
		want   string
	}{
		{"datetime", func(c *models.RunConfig) { c.CrawlStartDate = "02/01/2026" }, "crawlStartDate must be a date in YYYY-MM-DD format"},
		{"required", func(c *models.RunConfig) { c.MovieSettings[0].MovieName = "" }, "movieName is required"},
		{"max", func(c *models.RunConfig) { c.MovieSettings[0].MovieName = strings.Repeat("b", 201) }, "movieName must be at most 200 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)
			err := ValidateRunConfig(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := err.Errors()[0].Error(); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}
