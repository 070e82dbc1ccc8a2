// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/showtimes/internal/config"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
)

// SchedulerActor is recorded as triggered_by on scheduled runs.
const SchedulerActor = "scheduler"

// RunStarter starts fetch runs. *Coordinator satisfies it.
type RunStarter interface {
	StartRun(ctx context.Context, req StartRequest) (*models.Run, error)
}

// ActiveRunChecker reports whether a run of a trigger type is still active.
type ActiveRunChecker interface {
	HasActiveRun(ctx context.Context, trigger models.RunTrigger) (bool, error)
}

// Scheduler triggers SCHEDULED runs on a cron expression. It implements
// suture.Service.
type Scheduler struct {
	cron      *cron.Cron
	starter   RunStarter
	runs      ActiveRunChecker
	brands    models.BrandChoice
	daysAhead int
	loc       *time.Location
	now       func() time.Time
}

// NewScheduler parses cfg and registers the trigger. The cron expression is
// evaluated in loc.
func NewScheduler(cfg *config.ScheduleConfig, starter RunStarter, runs ActiveRunChecker, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	brands, err := brandChoice(cfg.Brands)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		starter:   starter,
		runs:      runs,
		brands:    brands,
		daysAhead: cfg.DaysAhead,
		loc:       loc,
		now:       time.Now,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithLogger(cronLogger{log: logging.WithComponent("cron")}),
	)
	if _, err := s.cron.AddFunc(cfg.Cron, s.fire); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Serve runs the cron loop until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.cron.Start()
	logging.Info().Int("days_ahead", s.daysAhead).Msg("Scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	logging.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "scheduler"
}

// Trigger starts one scheduled run covering today through today+days_ahead.
// It returns ErrScheduledRunActive when the previous scheduled run has not
// finished.
func (s *Scheduler) Trigger(ctx context.Context) (*models.Run, error) {
	active, err := s.runs.HasActiveRun(ctx, models.TriggerScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to check active scheduled runs: %w", err)
	}
	if active {
		metrics.ScheduledRunsSkipped.Inc()
		return nil, ErrScheduledRunActive
	}

	today := s.now().In(s.loc)
	return s.starter.StartRun(ctx, StartRequest{
		Config: models.RunConfig{
			CrawlStartDate: today.Format(RequestDateLayout),
			CrawlEndDate:   today.AddDate(0, 0, s.daysAhead).Format(RequestDateLayout),
			ChoiceCompany:  s.brands,
		},
		Trigger:     models.TriggerScheduled,
		TriggeredBy: SchedulerActor,
	})
}

func (s *Scheduler) fire() {
	run, err := s.Trigger(context.Background())
	switch {
	case errors.Is(err, ErrScheduledRunActive):
		logging.Warn().Msg("Previous scheduled run still active, skipping tick")
	case err != nil:
		logging.Error().Err(err).Msg("Failed to start scheduled run")
	default:
		logging.Info().Str("run_id", run.ID).Msg("Scheduled run started")
	}
}

func brandChoice(names []string) (models.BrandChoice, error) {
	var choice models.BrandChoice
	for _, name := range names {
		switch models.Brand(name) {
		case models.BrandA:
			choice.BrandA = true
		case models.BrandB:
			choice.BrandB = true
		case models.BrandC:
			choice.BrandC = true
		default:
			return choice, fmt.Errorf("unknown brand %q in schedule", name)
		}
	}
	if len(choice.Enabled()) == 0 {
		return choice, ErrNoBrandsSelected
	}
	return choice, nil
}

// cronLogger routes cron's internal events to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
