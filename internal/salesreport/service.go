package salesreport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/cineconnect/cineconnect/jobs"
)

// RunRepository persists report runs. *Repository satisfies it.
type RunRepository interface {
	InsertRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) error
	MarkReady(ctx context.Context, id uuid.UUID, file StoredFile, pages int, generatedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error
}

// Enqueuer submits generation tasks. *jobs.Client satisfies it.
type Enqueuer interface {
	EnqueueSalesReport(ctx context.Context, payload jobs.SalesReportPayload) (*asynq.TaskInfo, error)
}

// Service orchestrates run creation and status transitions.
type Service struct {
	repo     RunRepository
	queue    Enqueuer
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo RunRepository, queue Enqueuer, validate *validator.Validate, logger *slog.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, queue: queue, validate: validate, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateRun validates req, stores a pending run and queues its generation.
func (s *Service) CreateRun(ctx context.Context, req CreateRunRequest) (Run, error) {
	req.Period = strings.ToLower(strings.TrimSpace(req.Period))
	if err := validateStruct(s.validate, req, ErrInvalidRequest); err != nil {
		return Run{}, err
	}
	start, end, err := req.Bounds()
	if err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	run, err := s.repo.InsertRun(ctx, Run{ID: uuid.New(), Period: req.Period, RangeStart: start, RangeEnd: end, Status: StatusPending})
	if err != nil {
		return Run{}, err
	}
	if s.queue == nil {
		return run, nil
	}
	if _, err := s.queue.EnqueueSalesReport(ctx, jobs.SalesReportPayload{RunID: run.ID.String()}); err != nil {
		_ = s.repo.MarkFailed(ctx, run.ID, "enqueue: "+err.Error())
		return Run{}, fmt.Errorf("salesreport: enqueue run: %w", err)
	}
	s.logger.Info("sales report queued", slog.String("run_id", run.ID.String()), slog.String("period", run.Period))
	return run, nil
}

// Get loads a single run.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	return s.repo.GetRun(ctx, id)
}

// List returns the latest runs.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	return s.repo.ListRuns(ctx, limit)
}

// MarkInProgress transitions a run to in-progress.
func (s *Service) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkInProgress(ctx, id)
}

// MarkReady records the published file and reloads the run.
func (s *Service) MarkReady(ctx context.Context, id uuid.UUID, file StoredFile, pages int) (Run, error) {
	if err := s.repo.MarkReady(ctx, id, file, pages, s.now()); err != nil {
		return Run{}, err
	}
	return s.repo.GetRun(ctx, id)
}

// MarkFailed updates the record when generation fails.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, errMessage string) error {
	errMessage = strings.TrimSpace(errMessage)
	if errMessage == "" {
		errMessage = "unknown error"
	}
	return s.repo.MarkFailed(ctx, id, errMessage)
}
