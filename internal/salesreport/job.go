package salesreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/cineconnect/cineconnect/internal/jobs"
	"github.com/cineconnect/cineconnect/jobs"
)

// Source loads the aggregated data of a period.
type Source interface {
	LoadSales(ctx context.Context, period string, start, end time.Time) (ReportData, error)
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Service   *Service
	Source    Source
	Generator *Generator
	Store     *Store
	Metrics   *jobmetrics.Metrics
	Logger    *slog.Logger
	// StaleAfter is how long a run may stay IN_PROGRESS before a redelivery
	// gives up on it. Zero means DefaultStaleAfter.
	StaleAfter time.Duration
}

// DefaultStaleAfter is twice the generation task timeout.
const DefaultStaleAfter = 10 * time.Minute

// ErrRunInProgress is returned on redelivery while another attempt still owns
// the run. asynq retries it with backoff.
var ErrRunInProgress = errors.New("salesreport: run in progress")

// Job processes sales report generation requests coming from the queue.
type Job struct {
	service    *Service
	source     Source
	generator  *Generator
	store      *Store
	metrics    *jobmetrics.Metrics
	logger     *slog.Logger
	staleAfter time.Duration
	now        func() time.Time
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Job{
		service:    cfg.Service,
		source:     cfg.Source,
		generator:  cfg.Generator,
		store:      cfg.Store,
		metrics:    cfg.Metrics,
		logger:     logger.With(slog.String("job", jobs.TaskSalesReportGenerate)),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// WithNow overrides the clock used to detect abandoned runs.
func (j *Job) WithNow(now func() time.Time) *Job {
	if now != nil {
		j.now = now
	}
	return j
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.service == nil || j.source == nil || j.generator == nil || j.store == nil {
		return fmt.Errorf("sales report job not configured")
	}
	var payload jobs.SalesReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	id, err := uuid.Parse(payload.RunID)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics.Track(jobs.TaskSalesReportGenerate)
	defer func() {
		if errors.Is(err, asynq.SkipRetry) {
			return
		}
		err = tracker.End(err)
	}()

	run, err := j.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if run.Status != StatusPending {
		return j.redelivered(ctx, run)
	}
	if err := j.service.MarkInProgress(ctx, run.ID); err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			current, loadErr := j.service.Get(ctx, run.ID)
			if loadErr != nil {
				return loadErr
			}
			return j.redelivered(ctx, current)
		}
		return err
	}

	var start, end time.Time
	if run.RangeStart != nil {
		start = *run.RangeStart
	}
	if run.RangeEnd != nil {
		end = *run.RangeEnd
	}
	data, err := j.source.LoadSales(ctx, run.Period, start, end)
	if err != nil {
		return j.fail(ctx, run.ID, fmt.Errorf("load data: %w", err))
	}
	report, err := j.generator.Generate(ctx, data, run.Period)
	if err != nil {
		return j.fail(ctx, run.ID, err)
	}
	file, err := j.store.Save(run.Period, report.PDF)
	if err != nil {
		return j.fail(ctx, run.ID, err)
	}
	if _, err := j.service.MarkReady(ctx, run.ID, file, report.Pages); err != nil {
		if rmErr := j.store.Remove(file.Path); rmErr != nil {
			j.logger.Warn("remove unpublished report", slog.String("file", file.Name), slog.Any("error", rmErr))
		}
		return j.fail(ctx, run.ID, fmt.Errorf("mark ready: %w", err))
	}
	j.metrics.ObservePages(jobs.TaskSalesReportGenerate, report.Pages)
	j.logger.Info("sales report ready",
		slog.String("run_id", run.ID.String()),
		slog.String("file", file.Name),
		slog.Int("pages", report.Pages))
	return nil
}

// redelivered settles a task whose run already left PENDING. READY is done,
// FAILED is terminal, and IN_PROGRESS is retried until it goes stale.
func (j *Job) redelivered(ctx context.Context, run Run) error {
	switch run.Status {
	case StatusReady:
		return nil
	case StatusFailed:
		return fmt.Errorf("run %s failed: %s: %w", run.ID, run.ErrorMessage, asynq.SkipRetry)
	case StatusInProgress:
		if j.now().Sub(run.UpdatedAt) < j.staleAfter {
			return ErrRunInProgress
		}
		cause := fmt.Errorf("generation abandoned after %s", j.staleAfter)
		_ = j.fail(ctx, run.ID, cause)
		return fmt.Errorf("%w: %w", cause, asynq.SkipRetry)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, run.Status)
	}
}

func (j *Job) fail(ctx context.Context, id uuid.UUID, cause error) error {
	if err := j.service.MarkFailed(ctx, id, cause.Error()); err != nil {
		j.logger.Error("mark run failed", slog.String("run_id", id.String()), slog.Any("error", err))
	}
	j.logger.Error("sales report failed", slog.String("run_id", id.String()), slog.Any("error", cause))
	return cause
}
