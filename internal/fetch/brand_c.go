// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// BrandCFetcher reads the theater directory from GET {base}/theaters and then
// POSTs {brchNo, playDe} to {base}/schedule per unit.
type BrandCFetcher struct {
	client  *Client
	baseURL string
	store   LogStore
	workers int
}

// NewBrandCFetcher creates a BrandC fetcher.
func NewBrandCFetcher(baseURL string, store LogStore, opts Options) *BrandCFetcher {
	opts = opts.withDefaults()
	return &BrandCFetcher{
		client:  NewClient(models.BrandC, opts),
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		workers: opts.Workers,
	}
}

// Brand implements Fetcher.
func (f *BrandCFetcher) Brand() models.Brand {
	return models.BrandC
}

type brandCBranch struct {
	BrchNo string `json:"brchNo"`
	BrchNm string `json:"brchNm"`
	AreaCd string `json:"areaCd"`
}

type brandCScheduleRequest struct {
	BrchNo string `json:"brchNo"`
	PlayDe string `json:"playDe"`
}

// Fetch implements Fetcher.
func (f *BrandCFetcher) Fetch(ctx context.Context, runID string, dates []string, stop StopCheck) (*Result, error) {
	ctx = logging.ContextWithBrand(ctx, string(models.BrandC))

	theaters, err := f.discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover theaters: %w", err)
	}
	metrics.FetchDiscoveredTheaters.WithLabelValues(string(models.BrandC)).Set(float64(len(theaters)))

	p := &pool{brand: models.BrandC, runID: runID, workers: f.workers, store: f.store, stop: stop}
	res := p.run(ctx, planUnits(models.BrandC, theaters, dates), f.fetchUnit)

	logging.Ctx(ctx).Info().Int("logs_created", res.LogsCreated).Int("total_units", res.TotalUnits).Int("failures", len(res.Failures)).Bool("stopped", res.Stopped).Msg("Brand fetch complete")
	return res, nil
}

func (f *BrandCFetcher) discover(ctx context.Context) ([]models.Theater, error) {
	raw, err := f.client.fetchJSON(ctx, requestConfig{
		method: http.MethodGet,
		url:    f.baseURL + "/theaters",
	})
	if err != nil {
		return nil, err
	}

	var directory struct {
		AreaBrchList []brandCBranch `json:"areaBrchList"`
	}
	if err := decodeEnvelope(raw, &directory); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(directory.AreaBrchList))
	theaters := make([]models.Theater, 0, len(directory.AreaBrchList))
	for _, b := range directory.AreaBrchList {
		id := strings.TrimSpace(b.BrchNo)
		name := strings.TrimSpace(b.BrchNm)
		if id == "" || name == "" || seen[id] {
			continue
		}
		seen[id] = true
		theaters = append(theaters, models.Theater{ID: id, Name: name, Region: b.AreaCd})
	}
	if len(theaters) == 0 {
		return nil, fmt.Errorf("%w: empty theater directory", ErrMalformedPayload)
	}
	return theaters, nil
}

func (f *BrandCFetcher) fetchUnit(ctx context.Context, unit models.WorkUnit) (json.RawMessage, error) {
	return f.client.fetchJSON(ctx, requestConfig{
		method:   http.MethodPost,
		url:      f.baseURL + "/schedule",
		body:     brandCScheduleRequest{BrchNo: unit.TheaterID, PlayDe: unit.Date},
		validate: validateBrandC,
	})
}

// validateBrandC requires the megaMap object.
func validateBrandC(raw json.RawMessage) error {
	var envelope struct {
		MegaMap map[string]json.RawMessage `json:"megaMap"`
	}
	if err := decodeEnvelope(raw, &envelope); err != nil {
		return err
	}
	if envelope.MegaMap == nil {
		return fmt.Errorf("%w: missing megaMap", ErrMalformedPayload)
	}
	return nil
}
