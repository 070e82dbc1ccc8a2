// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import (
	"sync"

	"github.com/tomtom215/showtimes/internal/normalize"
)

// TitleMap maps title identity keys to the first clean title seen in a run.
// It is safe for concurrent use by the brand transform tasks.
type TitleMap struct {
	mu     sync.Mutex
	titles map[string]string
}

// NewTitleMap creates an empty map.
func NewTitleMap() *TitleMap {
	return &TitleMap{titles: make(map[string]string)}
}

// Canonical returns the canonical spelling for clean, registering clean as
// canonical when its key is new. Titles with an empty key are returned as is.
func (m *TitleMap) Canonical(clean string) string {
	key := normalize.NormalizeTitle(clean)
	if key == "" {
		return clean
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if canonical, ok := m.titles[key]; ok {
		return canonical
	}
	m.titles[key] = clean
	return clean
}

// Len returns the number of distinct title keys.
func (m *TitleMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}
