// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package models

import (
	"slices"
	"testing"
)

func TestBrandValidAndRank(t *testing.T) {
	tests := []struct {
		brand Brand
		valid bool
		rank  int
	}{
		{BrandA, true, 0},
		{BrandB, true, 1},
		{BrandC, true, 2},
		{Brand("brandD"), false, 3},
		{Brand(""), false, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.brand), func(t *testing.T) {
			if got := tt.brand.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.brand.SortRank(); got != tt.rank {
				t.Errorf("SortRank() = %d, want %d", got, tt.rank)
			}
		})
	}
}

func TestRunStatusStates(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
		active   bool
	}{
		{RunStatusPending, false, true},
		{RunStatusRunning, false, true},
		{RunStatusStopRequested, false, true},
		{RunStatusSuccess, true, false},
		{RunStatusFailed, true, false},
		{RunStatusStopped, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestBrandChoiceEnabled(t *testing.T) {
	tests := []struct {
		name   string
		choice BrandChoice
		want   []Brand
	}{
		{"none", BrandChoice{}, []Brand{}},
		{"all", BrandChoice{BrandA: true, BrandB: true, BrandC: true}, []Brand{BrandA, BrandB, BrandC}},
		{"c and a keep order", BrandChoice{BrandC: true, BrandA: true}, []Brand{BrandA, BrandC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.choice.Enabled(); !slices.Equal(got, tt.want) {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunConfigTargetTitles(t *testing.T) {
	cfg := RunConfig{
		MovieSettings: []MovieSetting{
			{MovieName: "Alpha", RivalMovieNames: []string{"Beta", ""}},
			{MovieName: "", RivalMovieNames: []string{"Gamma"}},
		},
	}
	want := []string{"Alpha", "Beta", "Gamma"}
	if got := cfg.TargetTitles(); !slices.Equal(got, want) {
		t.Errorf("TargetTitles() = %v, want %v", got, want)
	}

	if got := (RunConfig{}).TargetTitles(); len(got) != 0 {
		t.Errorf("TargetTitles() on empty config = %v, want empty", got)
	}
}

func TestRunSummaryBrand(t *testing.T) {
	s := NewRunSummary([]Brand{BrandA})
	s.Brand(BrandA).LogsCreated = 3
	s.Brand(BrandB).Failures++

	if s.Brands[BrandA].LogsCreated != 3 {
		t.Errorf("BrandA.LogsCreated = %d, want 3", s.Brands[BrandA].LogsCreated)
	}
	if s.Brands[BrandB].Failures != 1 {
		t.Errorf("BrandB.Failures = %d, want 1", s.Brands[BrandB].Failures)
	}

	var empty RunSummary
	empty.Brand(BrandC).Stopped = true
	if !empty.Brands[BrandC].Stopped {
		t.Error("Brand() on zero summary did not create the entry")
	}
}
