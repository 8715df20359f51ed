package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/cineconnect/cineconnect/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DefaultWarmupPeriods are warmed when the payload names none.
var DefaultWarmupPeriods = []string{"daily", "weekly", "monthly", "yearly"}

// ReportWarmer aggregates and caches the report data of a period.
type ReportWarmer interface {
	Warm(ctx context.Context, period string) error
}

// ReportWarmupJob pre-populates the report data cache.
type ReportWarmupJob struct {
	Warmer  ReportWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(warmer ReportWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Warmer: warmer, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes cache warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	periods := payload.Periods
	if len(periods) == 0 {
		periods = DefaultWarmupPeriods
	}

	tracker := j.metrics().Track(TaskReportCacheWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting report cache warmup", slog.Int("periods", len(periods)))
	start := time.Now()
	for _, period := range periods {
		if err := j.warm(ctx, period); err != nil {
			resultErr = err
			logger.Error("warm period", slog.String("period", period), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("completed report cache warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReportWarmupJob) warm(ctx context.Context, period string) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	periodCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return j.Warmer.Warm(periodCtx, period)
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportCacheWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
