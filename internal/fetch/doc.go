// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

/*
Package fetch harvests raw schedule payloads from the three brand backends.

Every brand implements the Fetcher contract: given a run id and a list of
YYYYMMDD dates it plans one work unit per (theater, date), drives the units
through a bounded worker pool and stores one crawl log per successful unit.
A failed unit is recorded and skipped; it never aborts the batch.

Key Components:

  - Client: shared HTTP client with request pacing (x/time/rate), per-attempt
    timeout, exponential backoff and a per-brand circuit breaker (gobreaker)
  - runUnits: errgroup worker pool that polls the stop check before drawing
    each unit
  - BrandAFetcher: static per-theater endpoint over a built-in site table
  - BrandBFetcher: theater discovery through a headless browser (chromedp)
    followed by HMAC-signed schedule requests
  - BrandCFetcher: theater directory request followed by a POST per
    (theater, date)

Error Policy:

Transport errors and non-2xx responses are retried with backoff up to the
configured attempt budget. A malformed payload (ErrMalformedPayload) or a
body over Options.MaxPayloadBytes (ErrPayloadTooLarge) is terminal for its
unit. An open circuit rejects the attempt immediately and the
unit is recorded as failed.

Cancellation:

Stopping is cooperative. The StopCheck passed to Fetch is consulted between
units; once it returns ErrStopped no further unit is started and in-flight
units run to completion.
*/
package fetch
