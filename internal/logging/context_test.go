// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package logging

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	id1 := GenerateRequestID()
	id2 := GenerateRequestID()
	if len(id1) != 36 {
		t.Errorf("expected 36-character UUID, got %d characters", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique request IDs")
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || RunIDFromContext(ctx) != "" || BrandFromContext(ctx) != "" {
		t.Fatal("expected empty values on a bare context")
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithRunID(ctx, "run-1")
	ctx = ContextWithBrand(ctx, "brandC")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q, want req-1", got)
	}
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext = %q, want run-1", got)
	}
	if got := BrandFromContext(ctx); got != "brandC" {
		t.Errorf("BrandFromContext = %q, want brandC", got)
	}
}

func TestCtx(t *testing.T) {
	buf := captureLogs(t, "info")

	ctx := ContextWithRunID(context.Background(), "run-42")
	ctx = ContextWithBrand(ctx, "brandB")
	Ctx(ctx).Info().Msg("unit done")

	output := buf.String()
	for _, want := range []string{`"run_id":"run-42"`, `"brand":"brandB"`, "unit done"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
	if strings.Contains(output, "request_id") {
		t.Errorf("request_id should be omitted when absent: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureLogs(t, "info")

	logger := WithComponent("export")
	logger.Info().Msg("workbook written")

	if !strings.Contains(buf.String(), `"component":"export"`) {
		t.Errorf("expected component field in output: %s", buf.String())
	}
}
