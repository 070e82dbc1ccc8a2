// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"

	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/models"
)

// Discoverer lists the theaters of a brand whose directory is only
// available as a rendered page.
type Discoverer interface {
	Discover(ctx context.Context) ([]models.Theater, error)
}

// ChromeDiscoverer walks the BrandB theater directory in a headless browser:
// it opens the page, clicks every region tab in turn and collects the
// theater links shown for that region.
type ChromeDiscoverer struct {
	URL               string
	RegionSelector    string
	TheaterSelector   string
	ChromePath        string
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	// RegionSettle is the pause after a region click before theaters are read.
	RegionSettle time.Duration
}

// NewChromeDiscoverer builds a discoverer from configuration.
func NewChromeDiscoverer(cfg *config.BrandBConfig, fetchCfg *config.FetchConfig) *ChromeDiscoverer {
	return &ChromeDiscoverer{
		URL:               cfg.DiscoveryURL,
		RegionSelector:    cfg.RegionSelector,
		TheaterSelector:   cfg.TheaterSelector,
		ChromePath:        cfg.ChromePath,
		Headless:          cfg.Headless,
		UserAgent:         fetchCfg.UserAgent,
		NavigationTimeout: fetchCfg.NavigationTimeout,
		RegionSettle:      300 * time.Millisecond,
	}
}

// discoveredTheater is the shape returned by the in-page collection script.
type discoveredTheater struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Discover implements Discoverer. The browser is torn down on every return path.
func (d *ChromeDiscoverer) Discover(ctx context.Context) ([]models.Theater, error) {
	if d.URL == "" {
		return nil, fmt.Errorf("discovery URL is not configured")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)
	if d.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(d.ChromePath))
	}
	if d.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := d.NavigationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	navCtx, cancelNav := context.WithTimeout(browserCtx, timeout)
	defer cancelNav()

	regionSel, err := jsString(d.RegionSelector)
	if err != nil {
		return nil, err
	}
	theaterSel, err := jsString(d.TheaterSelector)
	if err != nil {
		return nil, err
	}

	var regionCount int
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(d.URL),
		chromedp.WaitReady(d.RegionSelector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, regionSel), &regionCount),
	); err != nil {
		return nil, fmt.Errorf("failed to load theater directory: %w", err)
	}

	seen := make(map[string]bool)
	var theaters []models.Theater
	for i := 0; i < regionCount; i++ {
		var (
			clicked bool
			found   []discoveredTheater
		)
		click := fmt.Sprintf(`(() => {
	const region = document.querySelectorAll(%s)[%d];
	if (!region) { return false; }
	region.click();
	return true;
})()`, regionSel, i)
		read := fmt.Sprintf(`(() => {
	const region = document.querySelectorAll(%[1]s)[%[3]d];
	const regionName = region ? region.textContent.trim() : "";
	return Array.from(document.querySelectorAll(%[2]s)).map(el => ({
		id: el.getAttribute("data-theater-code") || el.getAttribute("href") || "",
		name: el.textContent.trim(),
		region: regionName,
	}));
})()`, regionSel, theaterSel, i)

		if err := chromedp.Run(navCtx,
			chromedp.Evaluate(click, &clicked),
			chromedp.Sleep(d.RegionSettle),
			chromedp.Evaluate(read, &found),
		); err != nil {
			return nil, fmt.Errorf("failed to read region %d: %w", i, err)
		}
		if !clicked {
			continue
		}

		for _, t := range found {
			if t.ID == "" || t.Name == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			theaters = append(theaters, models.Theater{ID: t.ID, Name: t.Name, Region: t.Region})
		}
	}

	logging.Ctx(ctx).Info().Int("regions", regionCount).Int("theaters", len(theaters)).Msg("Theater directory discovered")
	return theaters, nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("selector is empty")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to quote selector: %w", err)
	}
	return string(b), nil
}
