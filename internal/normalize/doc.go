// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

// Package normalize holds the pure title and screen-name functions shared by
// the transformers and the exporter. Every function is total and safe for
// concurrent use.
package normalize
