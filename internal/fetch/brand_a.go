// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// DefaultBrandASites is the BrandA site-code table. BrandA exposes no theater
// directory, so the codes are maintained here.
var DefaultBrandASites = []models.Theater{
	{ID: "1013", Name: "BrandA 가산디지털", Region: "서울"},
	{ID: "1004", Name: "BrandA 건대입구", Region: "서울"},
	{ID: "1009", Name: "BrandA 김포공항", Region: "서울"},
	{ID: "1003", Name: "BrandA 노원", Region: "서울"},
	{ID: "1016", Name: "BrandA 월드타워", Region: "서울"},
	{ID: "1012", Name: "BrandA 홍대입구", Region: "서울"},
	{ID: "3027", Name: "BrandA 수원", Region: "경기"},
	{ID: "3008", Name: "BrandA 안산", Region: "경기"},
	{ID: "2004", Name: "BrandA 부산본점", Region: "부산"},
	{ID: "2007", Name: "BrandA 센텀시티", Region: "부산"},
	{ID: "4004", Name: "BrandA 대구광장", Region: "대구"},
	{ID: "5002", Name: "BrandA 광주", Region: "광주"},
}

// BrandAFetcher requests GET {base}/schedules?siteCode=..&date=.. per unit.
type BrandAFetcher struct {
	client  *Client
	baseURL string
	sites   []models.Theater
	store   LogStore
	workers int
}

// NewBrandAFetcher creates a BrandA fetcher. A nil sites slice uses DefaultBrandASites.
func NewBrandAFetcher(baseURL string, sites []models.Theater, store LogStore, opts Options) *BrandAFetcher {
	opts = opts.withDefaults()
	if sites == nil {
		sites = DefaultBrandASites
	}
	return &BrandAFetcher{
		client:  NewClient(models.BrandA, opts),
		baseURL: strings.TrimRight(baseURL, "/"),
		sites:   sites,
		store:   store,
		workers: opts.Workers,
	}
}

// Brand implements Fetcher.
func (f *BrandAFetcher) Brand() models.Brand {
	return models.BrandA
}

// Fetch implements Fetcher.
func (f *BrandAFetcher) Fetch(ctx context.Context, runID string, dates []string, stop StopCheck) (*Result, error) {
	ctx = logging.ContextWithBrand(ctx, string(models.BrandA))
	metrics.FetchDiscoveredTheaters.WithLabelValues(string(models.BrandA)).Set(float64(len(f.sites)))

	p := &pool{brand: models.BrandA, runID: runID, workers: f.workers, store: f.store, stop: stop}
	res := p.run(ctx, planUnits(models.BrandA, f.sites, dates), f.fetchUnit)

	logging.Ctx(ctx).Info().Int("logs_created", res.LogsCreated).Int("total_units", res.TotalUnits).Int("failures", len(res.Failures)).Bool("stopped", res.Stopped).Msg("Brand fetch complete")
	return res, nil
}

func (f *BrandAFetcher) fetchUnit(ctx context.Context, unit models.WorkUnit) (json.RawMessage, error) {
	return f.client.fetchJSON(ctx, requestConfig{
		method:   http.MethodGet,
		url:      f.baseURL + "/schedules",
		query:    url.Values{"siteCode": {unit.TheaterID}, "date": {unit.Date}},
		validate: validateBrandA,
	})
}

// validateBrandA requires the {"data": [...]} envelope.
func validateBrandA(raw json.RawMessage) error {
	var envelope struct {
		Data *[]json.RawMessage `json:"data"`
	}
	if err := decodeEnvelope(raw, &envelope); err != nil {
		return err
	}
	if envelope.Data == nil {
		return fmt.Errorf("%w: missing data list", ErrMalformedPayload)
	}
	return nil
}
