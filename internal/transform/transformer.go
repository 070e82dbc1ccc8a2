// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package transform

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/normalize"
)

// maxExcerptRunes bounds the raw item excerpt kept in an ItemError.
const maxExcerptRunes = 200

// ScheduleStore upserts the parsed items of one log atomically.
type ScheduleStore interface {
	UpsertShowtimes(ctx context.Context, logID int64, items []models.ParsedItem, loc *time.Location) (int, error)
}

// LogResult is the outcome of transforming one log.
type LogResult struct {
	RowsTouched int
	ItemErrors  []models.ItemError
}

// Transformer parses crawl logs and writes schedule rows.
type Transformer struct {
	store ScheduleStore
	loc   *time.Location
}

// New creates a Transformer writing to store, interpreting times in loc.
func New(store ScheduleStore, loc *time.Location) *Transformer {
	if loc == nil {
		loc = LoadZone(DefaultZone)
	}
	return &Transformer{store: store, loc: loc}
}

// Location returns the zone times are interpreted in.
func (t *Transformer) Location() *time.Location {
	return t.loc
}

// TransformLog parses log and upserts its items. targets filters items by
// normalized title containment; an empty list keeps everything. Item errors
// are collected in the result; the returned error reports a failed upsert,
// in which case nothing from this log was written.
func (t *Transformer) TransformLog(ctx context.Context, log *models.CrawlLog, targets []string, titles *TitleMap) (*LogResult, error) {
	start := time.Now()
	items, itemErrs := ParseItems(log, targets, titles, t.loc)

	res := &LogResult{ItemErrors: itemErrs}
	if len(items) > 0 {
		touched, err := t.store.UpsertShowtimes(ctx, log.ID, items, t.loc)
		if err != nil {
			return res, fmt.Errorf("failed to upsert showtimes for log %d: %w", log.ID, err)
		}
		res.RowsTouched = touched
	}

	metrics.RecordTransform(string(log.Brand), res.RowsTouched, len(res.ItemErrors), time.Since(start))
	logging.Ctx(ctx).Debug().Int64("log_id", log.ID).Str("theater", log.TheaterName).Int("items", len(items)).Int("rows_touched", res.RowsTouched).Int("item_errors", len(res.ItemErrors)).Msg("Log transformed")
	return res, nil
}

// ParseItems extracts the schedule items of log. It never fails as a whole:
// an undecodable payload yields no items and no errors.
func ParseItems(log *models.CrawlLog, targets []string, titles *TitleMap, loc *time.Location) ([]models.ParsedItem, []models.ItemError) {
	if titles == nil {
		titles = NewTitleMap()
	}
	targetKeys := targetKeys(targets)

	var (
		items []models.ParsedItem
		errs  []models.ItemError
	)
	for _, raw := range scheduleItems(log.Brand, log.Payload) {
		rawTitle, err := itemTitle(log.Brand, raw)
		if err != nil {
			errs = append(errs, itemError(log, "", raw, err))
			continue
		}
		if !matchesTargets(rawTitle, targetKeys) {
			continue
		}

		st, err := extractItem(log.Brand, raw, log.QueryDate, loc)
		if err != nil {
			errs = append(errs, itemError(log, rawTitle, raw, err))
			continue
		}

		clean, tags := normalize.ParseAndNormalizeTitle(st.title)
		if clean == "" {
			errs = append(errs, itemError(log, rawTitle, raw, fmt.Errorf("%w: title is empty after normalization", ErrMissingField)))
			continue
		}
		total, remaining := clampSeats(st.total, st.remaining)
		if tags == nil {
			tags = []string{}
		}

		items = append(items, models.ParsedItem{
			Brand:              log.Brand,
			Theater:            log.TheaterName,
			Screen:             normalize.NormalizeScreenName(st.screen),
			StartTime:          st.start,
			EndTime:            st.end,
			MovieTitle:         titles.Canonical(clean),
			Tags:               tags,
			IsBookingAvailable: remaining > 0,
			TotalSeats:         total,
			RemainingSeats:     remaining,
		})
	}
	return items, errs
}

func targetKeys(targets []string) []string {
	keys := make([]string, 0, len(targets))
	for _, t := range targets {
		if k := normalize.NormalizeTitle(normalize.DecodeEntities(t)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// matchesTargets reports whether any target key is contained in the title's key.
func matchesTargets(rawTitle string, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	titleKey := normalize.NormalizeTitle(normalize.DecodeEntities(rawTitle))
	for _, k := range keys {
		if strings.Contains(titleKey, k) {
			return true
		}
	}
	return false
}

func itemError(log *models.CrawlLog, movie string, raw json.RawMessage, err error) models.ItemError {
	return models.ItemError{
		Theater:     log.TheaterName,
		Brand:       log.Brand,
		Movie:       movie,
		Error:       err.Error(),
		ItemExcerpt: excerpt(string(raw)),
	}
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= maxExcerptRunes {
		return s
	}
	return string([]rune(s)[:maxExcerptRunes])
}
