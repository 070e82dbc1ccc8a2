// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/showtimes/internal/models"
)

type fakeStore struct {
	replaced map[string][]models.RegistryTheater
}

func (f *fakeStore) ReplaceRegistryTheaters(_ context.Context, brandKey string, theaters []models.RegistryTheater) error {
	if f.replaced == nil {
		f.replaced = make(map[string][]models.RegistryTheater)
	}
	f.replaced[brandKey] = theaters
	return nil
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theaters.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestSeed(t *testing.T) {
	path := writeSeed(t, `
theaters:
  - brand_key: brandA
    display_name: " 강남 "
    region_code: "01"
  - brand_key: brandC
    display_name: 코엑스
    excel_alias: 메가박스 코엑스
    region_code: "01"
  - brand_key: brandA
    display_name: 대전
    region_code: "05"
`)

	store := &fakeStore{}
	n, err := Seed(context.Background(), store, path)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Seed() = %d, want 3", n)
	}
	if got := len(store.replaced["brandA"]); got != 2 {
		t.Errorf("brandA rows = %d, want 2", got)
	}
	if store.replaced["brandA"][0].DisplayName != "강남" {
		t.Errorf("display name not trimmed: %q", store.replaced["brandA"][0].DisplayName)
	}
	if store.replaced["brandC"][0].ExcelAlias != "메가박스 코엑스" {
		t.Errorf("excel alias = %q", store.replaced["brandC"][0].ExcelAlias)
	}
	if _, ok := store.replaced["brandB"]; ok {
		t.Error("brands absent from the seed must not be replaced")
	}
}

func TestLoadSeedFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "theaters:\n  - brand_key: brandA\n", "display_name"},
		{"unknown brand", "theaters:\n  - brand_key: brandZ\n    display_name: x\n", "unknown brand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeed(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadSeedFile() error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
