// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	h := &SlogHandler{logger: zerolog.New(&buf)}
	logger := slog.New(h)

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"debug", func() { logger.Debug("d") }, "debug"},
		{"info", func() { logger.Info("i") }, "info"},
		{"warn", func() { logger.Warn("w") }, "warn"},
		{"error", func() { logger.Error("e") }, "error"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.log()
		if !strings.Contains(buf.String(), `"level":"`+tt.level+`"`) {
			t.Errorf("%s: expected level in output: %s", tt.name, buf.String())
		}
	}
}

func TestSlogHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	h := &SlogHandler{logger: zerolog.New(&buf)}
	logger := slog.New(h).With("supervisor", "showtimes").WithGroup("event")

	logger.Info("service restarted",
		"service", "scheduler",
		"restarts", 2,
		"backoff", 15*time.Second,
		"healthy", false,
	)

	output := buf.String()
	for _, want := range []string{
		`"event.supervisor":"showtimes"`,
		`"event.service":"scheduler"`,
		`"event.restarts":2`,
		`"event.healthy":false`,
		"service restarted",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestAddAttr_NestedGroups(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	event := l.Info()
	event = addAttr(event, slog.Group("outer", slog.Group("inner", slog.String("k", "v"))), []string{"root"})
	event.Msg("nested")

	if !strings.Contains(buf.String(), `"root.outer.inner.k":"v"`) {
		t.Errorf("expected nested key in output: %s", buf.String())
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
