// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

// Package logging provides zerolog-based structured logging for Showtimes.
//
// A single global logger is configured from main with Init and used through
// level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("brand", "brandA").Int("units", n).Msg("Fetch planned")
//	logging.Error().Err(err).Msg("Upsert failed")
//
// Pipeline code attaches the run and brand to a context so that every line
// written through Ctx carries run_id and brand:
//
//	ctx = logging.ContextWithRunID(ctx, run.ID)
//	logging.Ctx(ctx).Warn().Str("theater", name).Msg("Unit failed")
//
// NewSlogLogger adapts the logger for libraries that require log/slog, such
// as the suture supervisor event hook.
//
// Always terminate event chains with Msg or Send; an unterminated event is
// never written.
package logging
