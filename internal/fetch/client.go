// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

const (
	// defaultMaxPayloadBytes bounds a single schedule response.
	defaultMaxPayloadBytes = 16 << 20
	// maxErrorBodyBytes bounds the body excerpt kept in status errors.
	maxErrorBodyBytes = 512
)

// Options configures the shared client and worker pool of a brand fetcher.
type Options struct {
	Workers           int
	RequestTimeout    time.Duration
	RetryAttempts     int
	RetryBaseDelay    time.Duration
	RequestsPerSecond float64
	UserAgent         string

	// MaxPayloadBytes caps a response body. Larger bodies fail with
	// ErrPayloadTooLarge. Defaults to 16 MiB.
	MaxPayloadBytes int64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// OptionsFromConfig maps the fetch configuration section to Options.
func OptionsFromConfig(cfg *config.FetchConfig) Options {
	return Options{
		Workers:           cfg.Workers,
		RequestTimeout:    cfg.RequestTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryBaseDelay:    cfg.RetryBaseDelay,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.RetryAttempts < 1 {
		o.RetryAttempts = 3
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 500 * time.Millisecond
	}
	if o.MaxPayloadBytes <= 0 {
		o.MaxPayloadBytes = defaultMaxPayloadBytes
	}
	return o
}

// Client performs paced, retried, breaker-protected JSON requests against one brand backend.
type Client struct {
	brand      models.Brand
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitBreaker
	opts       Options
}

// NewClient creates the client for brand.
func NewClient(brand models.Brand, opts Options) *Client {
	opts = opts.withDefaults()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		brand:      brand,
		httpClient: httpClient,
		limiter:    limiter,
		breaker:    newCircuitBreaker(string(brand) + "-api"),
		opts:       opts,
	}
}

// requestConfig holds parameters for one logical request.
type requestConfig struct {
	method string
	url    string
	query  url.Values
	body   any
	// prepare runs on every attempt after headers are set; used for request signing.
	prepare func(*http.Request) error
	// validate rejects a well-formed JSON body that lacks the brand's envelope.
	validate func(json.RawMessage) error
}

// fetchJSON performs cfg with retries and returns the raw JSON body.
func (c *Client) fetchJSON(ctx context.Context, cfg requestConfig) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.RetryAttempts; attempt++ {
		payload, err := c.breaker.execute(func() (json.RawMessage, error) {
			return c.doRequest(ctx, cfg)
		})
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == c.opts.RetryAttempts-1 {
			break
		}

		retryDelay := c.opts.RetryBaseDelay * (1 << attempt)
		metrics.RecordFetchRetry(string(c.brand))
		logging.Ctx(ctx).Warn().Err(err).Str("url", cfg.url).Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_attempts", c.opts.RetryAttempts).Msg("Brand request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.opts.RetryAttempts, lastErr)
}

// doRequest performs a single attempt.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	target := cfg.url
	if len(cfg.query) > 0 {
		target += "?" + cfg.query.Encode()
	}

	var body io.Reader
	if cfg.body != nil {
		encoded, err := json.Marshal(cfg.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(reqCtx, cfg.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if cfg.prepare != nil {
		if err := cfg.prepare(req); err != nil {
			return nil, fmt.Errorf("prepare request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(excerpt))
	}

	// One byte past the limit tells a full body apart from a cut one.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(raw)) > c.opts.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrPayloadTooLarge, c.opts.MaxPayloadBytes)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrMalformedPayload)
	}
	if cfg.validate != nil {
		if err := cfg.validate(raw); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(raw), nil
}

// decodeEnvelope decodes a payload into v. Some backends wrap the whole
// document in a JSON string; that form is unwrapped first.
func decodeEnvelope(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		trimmed = []byte(inner)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
