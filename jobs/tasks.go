package jobs

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSalesReportGenerate renders a queued sales report run.
	TaskSalesReportGenerate = "report:sales:generate"
	// TaskReportCacheWarmup pre-aggregates report data for common periods.
	TaskReportCacheWarmup = "report:cache:warmup"
)

// SalesReportPayload identifies the run to generate.
type SalesReportPayload struct {
	RunID string `json:"run_id"`
}

// NewSalesReportTask builds a generation task for runID.
func NewSalesReportTask(runID string) (*asynq.Task, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("jobs: run id required")
	}
	body, err := json.Marshal(SalesReportPayload{RunID: runID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesReportGenerate, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.TaskID(runID),
	), nil
}

// CacheWarmupPayload lists the periods to warm. Empty means the defaults.
type CacheWarmupPayload struct {
	Periods []string `json:"periods"`
}

// NewCacheWarmupTask builds a warmup task.
func NewCacheWarmupTask(periods ...string) (*asynq.Task, error) {
	body, err := json.Marshal(CacheWarmupPayload{Periods: periods})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportCacheWarmup, body, asynq.Queue(QueueDefault)), nil
}
