// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/showtimes/internal/database"
	"github.com/tomtom215/showtimes/internal/export"
	"github.com/tomtom215/showtimes/internal/fetch"
	"github.com/tomtom215/showtimes/internal/logging"
	"github.com/tomtom215/showtimes/internal/metrics"
	"github.com/tomtom215/showtimes/internal/models"
	"github.com/tomtom215/showtimes/internal/transform"
)

// DefaultActor is recorded as triggered_by when the caller names nobody.
const DefaultActor = "api"

// finishTimeout bounds the final history write, which runs even after the
// coordinator context is canceled.
const finishTimeout = 10 * time.Second

// RunStore is the run history the coordinator drives.
type RunStore interface {
	CreatePendingRun(ctx context.Context, run *models.Run) error
	MarkRunRunning(ctx context.Context, id string) error
	MarkRunFinished(ctx context.Context, id string, result database.RunResult) error
	RequestStop(ctx context.Context, id string) error
	GetRunStatus(ctx context.Context, id string) (models.RunStatus, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
}

// LogSource reads the crawl logs a run captured.
type LogSource interface {
	ListCrawlLogIDs(ctx context.Context, runID string, brand models.Brand) ([]int64, error)
	CountCrawlLogs(ctx context.Context, runID string) (map[models.Brand]int, error)
	GetCrawlLog(ctx context.Context, id int64) (*models.CrawlLog, error)
}

// ScheduleReader loads the schedule rows attributed to a run.
type ScheduleReader interface {
	ListShowtimesForRun(ctx context.Context, runID string, loc *time.Location) ([]*models.Showtime, error)
}

// RegistryReader reads the theater registry used for region lookup.
type RegistryReader interface {
	ListRegistryTheaters(ctx context.Context) ([]models.RegistryTheater, error)
}

// Store is everything the coordinator persists to. *database.DB satisfies it.
type Store interface {
	RunStore
	LogSource
	ScheduleReader
	RegistryReader
}

// Options tunes a Coordinator.
type Options struct {
	// Location is the schedule timezone. Defaults to the transformer's.
	Location *time.Location
	// MaxRangeDays caps the requested date range; 0 disables the cap.
	MaxRangeDays int
}

// StartRequest describes a fetch run.
type StartRequest struct {
	Config      models.RunConfig
	Trigger     models.RunTrigger
	TriggeredBy string
}

// outcome is the terminal state a run body reports.
type outcome struct {
	status   models.RunStatus
	summary  *models.RunSummary
	err      error
	artifact string
}

type runBody func(ctx context.Context, run *models.Run, summary *models.RunSummary) outcome

// Coordinator owns the background execution of runs.
type Coordinator struct {
	store       Store
	fetchers    map[models.Brand]fetch.Fetcher
	transformer *transform.Transformer
	exporter    *export.Exporter
	loc         *time.Location
	maxRange    int

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a coordinator. Runs execute on a context owned by the
// coordinator and survive the request that started them.
func New(store Store, fetchers map[models.Brand]fetch.Fetcher, transformer *transform.Transformer, exporter *export.Exporter, opts Options) *Coordinator {
	loc := opts.Location
	if loc == nil {
		loc = transformer.Location()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:       store,
		fetchers:    fetchers,
		transformer: transformer,
		exporter:    exporter,
		loc:         loc,
		maxRange:    opts.MaxRangeDays,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// StartRun validates req, records a PENDING run and executes it in the
// background. The returned run carries the new id.
func (c *Coordinator) StartRun(ctx context.Context, req StartRequest) (*models.Run, error) {
	brands := req.Config.ChoiceCompany.Enabled()
	if len(brands) == 0 {
		return nil, ErrNoBrandsSelected
	}
	dates, err := ExpandDates(req.Config.CrawlStartDate, req.Config.CrawlEndDate, c.maxRange)
	if err != nil {
		return nil, err
	}
	if c.isClosed() {
		return nil, ErrCoordinatorClosed
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = models.TriggerManual
	}
	run := &models.Run{
		Trigger:       trigger,
		TriggeredBy:   actor(req.TriggeredBy),
		Configuration: req.Config,
	}
	if err := c.store.CreatePendingRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("run_id", run.ID).
		Str("trigger", string(run.Trigger)).
		Str("triggered_by", run.TriggeredBy).
		Strs("dates", dates).
		Int("brands", len(brands)).
		Msg("Run created")

	body := func(ctx context.Context, run *models.Run, summary *models.RunSummary) outcome {
		return c.fetchRun(ctx, run, brands, dates, summary)
	}
	if err := c.launch(run, brands, body); err != nil {
		return nil, err
	}
	return run, nil
}

// TransformRun re-processes the crawl logs of a finished run under a new
// TRANSFORM run. Schedule rows committed before a failure are kept.
func (c *Coordinator) TransformRun(ctx context.Context, sourceRunID, triggeredBy string) (*models.Run, error) {
	source, err := c.store.GetRun(ctx, sourceRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source run: %w", err)
	}
	if source.Status.Active() {
		return nil, ErrSourceRunActive
	}
	if c.isClosed() {
		return nil, ErrCoordinatorClosed
	}

	// Logs always belong to the fetch run, so a transform of a transform
	// reads the original run's logs.
	logRunID := source.ID
	if source.Trigger == models.TriggerTransform && source.SourceRunID != "" {
		logRunID = source.SourceRunID
	}

	brands := source.Configuration.ChoiceCompany.Enabled()
	if len(brands) == 0 {
		brands = append([]models.Brand(nil), models.AllBrands...)
	}

	run := &models.Run{
		Trigger:       models.TriggerTransform,
		TriggeredBy:   actor(triggeredBy),
		SourceRunID:   logRunID,
		Configuration: source.Configuration,
	}
	if err := c.store.CreatePendingRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("run_id", run.ID).
		Str("source_run_id", logRunID).
		Str("triggered_by", run.TriggeredBy).
		Msg("Transform run created")

	body := func(ctx context.Context, run *models.Run, summary *models.RunSummary) outcome {
		return c.transformRun(ctx, run, brands, summary)
	}
	if err := c.launch(run, brands, body); err != nil {
		return nil, err
	}
	return run, nil
}

// StopRun requests a cooperative stop. It returns database.ErrRunNotRunning
// when the run already finished.
func (c *Coordinator) StopRun(ctx context.Context, runID string) error {
	if err := c.store.RequestStop(ctx, runID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("run_id", runID).Msg("Stop requested")
	return nil
}

// Wait blocks until every launched run has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Shutdown refuses new runs, cancels the running ones and waits for them to
// record their outcome or for ctx to expire.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runs still active at shutdown: %w", ctx.Err())
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// launch registers the run with the wait group and starts it. A run created
// while Shutdown raced in is finished as FAILED right away.
func (c *Coordinator) launch(run *models.Run, brands []models.Brand, body runBody) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.finish(c.ctx, run, outcome{status: models.RunStatusFailed, err: ErrCoordinatorClosed})
		return ErrCoordinatorClosed
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go c.execute(run, brands, body)
	return nil
}

func (c *Coordinator) execute(run *models.Run, brands []models.Brand, body runBody) {
	defer c.wg.Done()

	ctx := logging.ContextWithRunID(c.ctx, run.ID)
	start := time.Now()
	metrics.RecordRunStarted(string(run.Trigger))

	out := c.guard(ctx, run, brands, body)

	c.finish(ctx, run, out)
	metrics.RecordRunFinished(string(run.Trigger), string(out.status), time.Since(start))
}

// guard moves the run to RUNNING and executes body, converting a panic into
// a FAILED outcome.
func (c *Coordinator) guard(ctx context.Context, run *models.Run, brands []models.Brand, body runBody) (out outcome) {
	summary := models.NewRunSummary(brands)
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Run panicked")
			out = outcome{
				status:  models.RunStatusFailed,
				summary: summary,
				err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if err := c.store.MarkRunRunning(ctx, run.ID); err != nil {
		return failed(summary, fmt.Errorf("failed to mark run running: %w", err))
	}
	logging.Ctx(ctx).Info().Str("trigger", string(run.Trigger)).Msg("Run started")
	return body(ctx, run, summary)
}

func (c *Coordinator) finish(ctx context.Context, run *models.Run, out outcome) {
	result := database.RunResult{
		Status:       out.status,
		Summary:      out.summary,
		ArtifactPath: out.artifact,
	}
	if out.err != nil {
		result.ErrorMessage = out.err.Error()
	}

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := c.store.MarkRunFinished(finishCtx, run.ID, result); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("status", string(out.status)).Msg("Failed to record run outcome")
		return
	}

	event := logging.Ctx(ctx).Info()
	if out.status == models.RunStatusFailed {
		event = logging.Ctx(ctx).Error().Str("error", result.ErrorMessage)
	}
	if out.summary != nil {
		event = event.Int("failures", len(out.summary.Failures)).Int("item_errors", len(out.summary.ItemErrors))
	}
	event.Str("status", string(out.status)).Str("artifact", out.artifact).Msg("Run finished")
}

// fetchRun is the body of MANUAL and SCHEDULED runs.
func (c *Coordinator) fetchRun(ctx context.Context, run *models.Run, brands []models.Brand, dates []string, summary *models.RunSummary) outcome {
	summary.Dates = dates
	watcher := &stopWatcher{store: c.store, runID: run.ID}

	c.fetchBrands(ctx, run.ID, brands, dates, watcher.check, summary)

	if out, done := c.interrupted(ctx, watcher, summary); done {
		return out
	}

	if err := c.transformLogs(ctx, run.ID, brands, run.Configuration.TargetTitles(), watcher.check, summary); err != nil {
		return failed(summary, err)
	}
	if out, done := c.interrupted(ctx, watcher, summary); done {
		return out
	}

	path, err := c.exportArtifacts(ctx, run.ID, run.ID, summary)
	if err != nil {
		return failed(summary, err)
	}
	return outcome{status: models.RunStatusSuccess, summary: summary, artifact: path}
}

// transformRun is the body of TRANSFORM runs. run.SourceRunID owns the logs.
func (c *Coordinator) transformRun(ctx context.Context, run *models.Run, brands []models.Brand, summary *models.RunSummary) outcome {
	watcher := &stopWatcher{store: c.store, runID: run.ID}

	counts, err := c.store.CountCrawlLogs(ctx, run.SourceRunID)
	if err != nil {
		return failed(summary, err)
	}
	for _, brand := range brands {
		summary.Brand(brand).TotalUnits = counts[brand]
	}

	if err := c.transformLogs(ctx, run.SourceRunID, brands, run.Configuration.TargetTitles(), watcher.check, summary); err != nil {
		return failed(summary, err)
	}
	if out, done := c.interrupted(ctx, watcher, summary); done {
		return out
	}

	path, err := c.exportArtifacts(ctx, run.ID, run.SourceRunID, summary)
	if err != nil {
		return failed(summary, err)
	}
	return outcome{status: models.RunStatusSuccess, summary: summary, artifact: path}
}

// interrupted reports whether the run must end early, either because the
// process is shutting down or because a stop was requested.
func (c *Coordinator) interrupted(ctx context.Context, w *stopWatcher, summary *models.RunSummary) (outcome, bool) {
	if ctx.Err() != nil {
		return failed(summary, errInterrupted), true
	}
	if errors.Is(w.check(ctx), fetch.ErrStopped) {
		summary.Stopped = true
		return outcome{status: models.RunStatusStopped, summary: summary}, true
	}
	return outcome{}, false
}

func failed(summary *models.RunSummary, err error) outcome {
	return outcome{status: models.RunStatusFailed, summary: summary, err: err}
}

func actor(name string) string {
	if name == "" {
		return DefaultActor
	}
	return name
}

// stopWatcher polls the run row and latches once a stop is seen.
type stopWatcher struct {
	store RunStore
	runID string
	seen  atomic.Bool
}

func (w *stopWatcher) check(ctx context.Context) error {
	if w.seen.Load() {
		return fetch.ErrStopped
	}
	status, err := w.store.GetRunStatus(ctx, w.runID)
	if err != nil {
		return fmt.Errorf("failed to read run status: %w", err)
	}
	if status == models.RunStatusStopRequested || status == models.RunStatusStopped {
		w.seen.Store(true)
		return fetch.ErrStopped
	}
	return nil
}
