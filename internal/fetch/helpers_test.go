// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/showtimes/internal/models"
)

// fakeLogStore records inserted logs in memory.
type fakeLogStore struct {
	mu     sync.Mutex
	logs   []*models.CrawlLog
	failOn map[string]bool // theater IDs whose insert fails
}

func (s *fakeLogStore) InsertCrawlLog(_ context.Context, log *models.CrawlLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[log.TheaterID] {
		return 0, errors.New("disk full")
	}
	s.logs = append(s.logs, log)
	return int64(len(s.logs)), nil
}

func (s *fakeLogStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func (s *fakeLogStore) byTheater(id string) []*models.CrawlLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CrawlLog
	for _, l := range s.logs {
		if l.TheaterID == id {
			out = append(out, l)
		}
	}
	return out
}

// fakeDiscoverer returns a fixed theater list.
type fakeDiscoverer struct {
	theaters []models.Theater
	err      error
}

func (d *fakeDiscoverer) Discover(context.Context) ([]models.Theater, error) {
	return d.theaters, d.err
}

func testOptions() Options {
	return Options{
		Workers:        2,
		RequestTimeout: 5 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	}
}
