// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// BrandB signing headers.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// BrandBFetcher discovers theaters through a Discoverer, then calls the
// signed schedule API once per unit.
type BrandBFetcher struct {
	client     *Client
	apiURL     string
	signer     *requestSigner
	discoverer Discoverer
	store      LogStore
	workers    int
}

// NewBrandBFetcher creates a BrandB fetcher.
func NewBrandBFetcher(apiURL, signingKey string, discoverer Discoverer, store LogStore, opts Options) *BrandBFetcher {
	opts = opts.withDefaults()
	return &BrandBFetcher{
		client:     NewClient(models.BrandB, opts),
		apiURL:     strings.TrimRight(apiURL, "/"),
		signer:     &requestSigner{key: []byte(signingKey), now: time.Now},
		discoverer: discoverer,
		store:      store,
		workers:    opts.Workers,
	}
}

// Brand implements Fetcher.
func (f *BrandBFetcher) Brand() models.Brand {
	return models.BrandB
}

// Fetch implements Fetcher.
func (f *BrandBFetcher) Fetch(ctx context.Context, runID string, dates []string, stop StopCheck) (*Result, error) {
	ctx = logging.ContextWithBrand(ctx, string(models.BrandB))

	theaters, err := f.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover theaters: %w", err)
	}
	if len(theaters) == 0 {
		return nil, fmt.Errorf("failed to discover theaters: directory is empty")
	}
	metrics.FetchDiscoveredTheaters.WithLabelValues(string(models.BrandB)).Set(float64(len(theaters)))

	p := &pool{brand: models.BrandB, runID: runID, workers: f.workers, store: f.store, stop: stop}
	res := p.run(ctx, planUnits(models.BrandB, theaters, dates), f.fetchUnit)

	logging.Ctx(ctx).Info().Int("logs_created", res.LogsCreated).Int("total_units", res.TotalUnits).Int("failures", len(res.Failures)).Bool("stopped", res.Stopped).Msg("Brand fetch complete")
	return res, nil
}

func (f *BrandBFetcher) fetchUnit(ctx context.Context, unit models.WorkUnit) (json.RawMessage, error) {
	return f.client.fetchJSON(ctx, requestConfig{
		method:   http.MethodGet,
		url:      f.apiURL + "/schedule",
		query:    url.Values{"theaterCode": {unit.TheaterID}, "playDate": {unit.Date}},
		prepare:  f.signer.sign,
		validate: validateBrandB,
	})
}

// validateBrandB requires a JSON object; the item list may live under
// several keys and is resolved by the transformer.
func validateBrandB(raw json.RawMessage) error {
	var envelope map[string]json.RawMessage
	if err := decodeEnvelope(raw, &envelope); err != nil {
		return err
	}
	if envelope == nil {
		return fmt.Errorf("%w: payload is not an object", ErrMalformedPayload)
	}
	return nil
}

// requestSigner adds BrandB's HMAC-SHA256 request signature.
//
// The signed string is METHOD \n PATH \n RAW_QUERY \n UNIX_SECONDS and the
// signature is its lowercase hex digest.
type requestSigner struct {
	key []byte
	now func() time.Time
}

func (s *requestSigner) sign(req *http.Request) error {
	if len(s.key) == 0 {
		return fmt.Errorf("signing key is not configured")
	}
	ts := strconv.FormatInt(s.now().Unix(), 10)
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, Signature(s.key, req.Method, req.URL.Path, req.URL.RawQuery, ts))
	return nil
}

// Signature computes the BrandB request signature.
func Signature(key []byte, method, path, rawQuery, timestamp string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(method + "\n" + path + "\n" + rawQuery + "\n" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}
