// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
	brandKey     contextKey = "brand"
)

// GenerateRequestID creates a new unique request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID returns a new context carrying the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRunID returns a new context carrying the pipeline run ID.
// Every log line written through Ctx for this context includes run_id.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext retrieves the run ID, or "" if absent.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithBrand returns a new context carrying the brand being processed.
func ContextWithBrand(ctx context.Context, brand string) context.Context {
	return context.WithValue(ctx, brandKey, brand)
}

// BrandFromContext retrieves the brand, or "" if absent.
func BrandFromContext(ctx context.Context) string {
	if b, ok := ctx.Value(brandKey).(string); ok {
		return b
	}
	return ""
}

// Ctx returns a logger with the context's request_id, run_id and brand fields attached.
//
//	logging.Ctx(ctx).Info().Int("logs", n).Msg("Brand fetch complete")
func Ctx(ctx context.Context) *zerolog.Logger {
	base := current()
	logCtx := base.With()
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := RunIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("run_id", id)
	}
	if b := BrandFromContext(ctx); b != "" {
		logCtx = logCtx.Str("brand", b)
	}
	l := logCtx.Logger()
	return &l
}

// WithComponent creates a child logger with a component field.
//
//	exportLogger := logging.WithComponent("export")
func WithComponent(component string) zerolog.Logger {
	l := current()
	return l.With().Str("component", component).Logger()
}
