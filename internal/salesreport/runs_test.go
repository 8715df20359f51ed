package salesreport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/cineconnect/cineconnect/jobs"
)

type memRepo struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]Run
	insertErr error
}

func newMemRepo() *memRepo {
	return &memRepo{runs: map[uuid.UUID]Run{}}
}

func (m *memRepo) InsertRun(_ context.Context, run Run) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return Run{}, m.insertErr
	}
	if _, ok := m.runs[run.ID]; ok {
		return Run{}, ErrDuplicateRun
	}
	run.Status = StatusPending
	run.CreatedAt = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	m.runs[run.ID] = run
	return run, nil
}

func (m *memRepo) GetRun(_ context.Context, id uuid.UUID) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

func (m *memRepo) ListRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *memRepo) MarkInProgress(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok || run.Status != StatusPending {
		return ErrInvalidStatus
	}
	run.Status = StatusInProgress
	run.UpdatedAt = memRepoClock
	m.runs[id] = run
	return nil
}

func (m *memRepo) MarkReady(_ context.Context, id uuid.UUID, file StoredFile, pages int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Status = StatusReady
	run.FilePath, run.FileName = file.Path, file.Name
	run.FileSize, run.PageCount, run.GeneratedAt = &file.Size, &pages, &at
	m.runs[id] = run
	return nil
}

func (m *memRepo) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Status = StatusFailed
	run.ErrorMessage = msg
	m.runs[id] = run
	return nil
}

var memRepoClock = time.Date(2025, 2, 1, 8, 5, 0, 0, time.UTC)

// flakyReadyRepo fails the first MarkReady call.
type flakyReadyRepo struct {
	*memRepo
	calls int
}

func (f *flakyReadyRepo) MarkReady(ctx context.Context, id uuid.UUID, file StoredFile, pages int, at time.Time) error {
	f.calls++
	if f.calls == 1 {
		return errors.New("db down")
	}
	return f.memRepo.MarkReady(ctx, id, file, pages, at)
}

type stubQueue struct {
	payloads []jobs.SalesReportPayload
	err      error
}

func (q *stubQueue) EnqueueSalesReport(_ context.Context, p jobs.SalesReportPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, p)
	return &asynq.TaskInfo{ID: p.RunID, Queue: jobs.QueueDefault}, nil
}

type stubSource struct {
	data   ReportData
	err    error
	period string
}

func (s *stubSource) LoadSales(_ context.Context, period string, _, _ time.Time) (ReportData, error) {
	s.period = period
	return s.data, s.err
}

func TestCreateRunQueuesGeneration(t *testing.T) {
	repo, queue := newMemRepo(), &stubQueue{}
	svc := NewService(repo, queue, nil, nil)

	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: " Monthly "})
	require.NoError(t, err)
	require.Equal(t, "monthly", run.Period)
	require.Equal(t, StatusPending, run.Status)
	require.Len(t, queue.payloads, 1)
	require.Equal(t, run.ID.String(), queue.payloads[0].RunID)
}

func TestCreateRunValidation(t *testing.T) {
	svc := NewService(newMemRepo(), &stubQueue{}, nil, nil)
	cases := map[string]CreateRunRequest{
		"unknown period":       {Period: "hourly"},
		"custom without dates": {Period: "custom"},
		"bad date":             {Period: "custom", Start: "2025-13-01", End: "2025-12-31"},
		"inverted":             {Period: "custom", Start: "2025-02-10", End: "2025-02-01"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateRun(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "custom", Start: "2025-02-01", End: "2025-02-10"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), *run.RangeEnd)
}

func TestCreateRunMarksFailedWhenEnqueueFails(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &stubQueue{err: errors.New("redis down")}, nil, nil)

	_, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "daily"})
	require.Error(t, err)
	runs, _ := repo.ListRuns(context.Background(), 10)
	require.Len(t, runs, 1)
	require.Equal(t, StatusFailed, runs[0].Status)
	require.Contains(t, runs[0].ErrorMessage, "redis down")
}

func TestStoreSavePublishesAtomically(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	store.now = func() time.Time { return time.UnixMilli(1738396800000) }

	file, err := store.Save("Monthly", []byte("%PDF-1.3 test"))
	require.NoError(t, err)
	require.Equal(t, "reporte-ventas-monthly-1738396800000.pdf", file.Name)
	require.Equal(t, filepath.Join(dir, file.Name), file.Path)
	require.EqualValues(t, 13, file.Size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not remain")

	f, err := store.Open(file.Path)
	require.NoError(t, err)
	defer f.Close()

	_, err = store.Open(filepath.Join(dir, "..", "elsewhere.pdf"))
	require.Error(t, err)
	_, err = store.Save("daily", nil)
	require.Error(t, err)
}

func TestStoreSaveFailsOnUnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewStore(filepath.Join(blocker, "reports")).Save("daily", []byte("%PDF"))
	require.Error(t, err)
}

func newJobFixture(t *testing.T, source *stubSource) (*Job, *Service, *memRepo, string) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(repo, nil, nil, nil)
	dir := t.TempDir()
	job := NewJob(JobConfig{
		Service:   svc,
		Source:    source,
		Generator: newTestGenerator(nil),
		Store:     NewStore(dir),
	})
	return job, svc, repo, dir
}

func taskFor(t *testing.T, runID string) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(jobs.SalesReportPayload{RunID: runID})
	require.NoError(t, err)
	return asynq.NewTask(jobs.TaskSalesReportGenerate, body)
}

func TestJobGeneratesAndPublishes(t *testing.T) {
	source := &stubSource{data: fullData()}
	job, svc, repo, dir := newJobFixture(t, source)
	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "monthly"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), taskFor(t, run.ID.String())))

	stored, err := repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReady, stored.Status)
	require.Equal(t, "monthly", source.period)
	require.NotNil(t, stored.PageCount)
	require.GreaterOrEqual(t, *stored.PageCount, 2)

	pdf, err := os.ReadFile(filepath.Join(dir, stored.FileName))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	require.EqualValues(t, len(pdf), *stored.FileSize)

	// redelivery of a finished run is a no-op
	require.NoError(t, job.Handle(context.Background(), taskFor(t, run.ID.String())))
}

func TestJobMarksFailure(t *testing.T) {
	source := &stubSource{err: errors.New("db timeout")}
	job, svc, repo, _ := newJobFixture(t, source)
	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "daily"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), taskFor(t, run.ID.String()))
	require.Error(t, err)
	stored, _ := repo.GetRun(context.Background(), run.ID)
	require.Equal(t, StatusFailed, stored.Status)
	require.Contains(t, stored.ErrorMessage, "db timeout")
}

func TestJobSkipsRetryOnBadPayload(t *testing.T) {
	job, _, _, _ := newJobFixture(t, &stubSource{})
	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(jobs.TaskSalesReportGenerate, []byte("{"))), asynq.SkipRetry)
	require.ErrorIs(t, job.Handle(context.Background(), taskFor(t, "not-a-uuid")), asynq.SkipRetry)
	require.ErrorIs(t, job.Handle(context.Background(), taskFor(t, uuid.NewString())), asynq.SkipRetry)
}

func TestJobFailsRunWhenMarkReadyFails(t *testing.T) {
	repo := &flakyReadyRepo{memRepo: newMemRepo()}
	svc := NewService(repo, nil, nil, nil)
	dir := t.TempDir()
	job := NewJob(JobConfig{
		Service:   svc,
		Source:    &stubSource{data: fullData()},
		Generator: newTestGenerator(nil),
		Store:     NewStore(dir),
	})
	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "weekly"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), taskFor(t, run.ID.String()))
	require.ErrorContains(t, err, "db down")
	stored, err := repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, stored.Status)
	require.Contains(t, stored.ErrorMessage, "mark ready")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "unpublished report must be removed")

	// the retry must not report success for a run that never became ready
	err = job.Handle(context.Background(), taskFor(t, run.ID.String()))
	require.ErrorIs(t, err, asynq.SkipRetry)
	stored, _ = repo.GetRun(context.Background(), run.ID)
	require.Equal(t, StatusFailed, stored.Status)
}

func TestJobRedeliveryWhileInProgress(t *testing.T) {
	job, svc, repo, _ := newJobFixture(t, &stubSource{data: fullData()})
	run, err := svc.CreateRun(context.Background(), CreateRunRequest{Period: "daily"})
	require.NoError(t, err)
	require.NoError(t, repo.MarkInProgress(context.Background(), run.ID))

	job.WithNow(func() time.Time { return memRepoClock.Add(time.Minute) })
	err = job.Handle(context.Background(), taskFor(t, run.ID.String()))
	require.ErrorIs(t, err, ErrRunInProgress)
	require.NotErrorIs(t, err, asynq.SkipRetry)
	stored, _ := repo.GetRun(context.Background(), run.ID)
	require.Equal(t, StatusInProgress, stored.Status)

	job.WithNow(func() time.Time { return memRepoClock.Add(DefaultStaleAfter) })
	err = job.Handle(context.Background(), taskFor(t, run.ID.String()))
	require.ErrorIs(t, err, asynq.SkipRetry)
	stored, _ = repo.GetRun(context.Background(), run.ID)
	require.Equal(t, StatusFailed, stored.Status)
	require.Contains(t, stored.ErrorMessage, "abandoned")
}

func TestStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	file, err := store.Save("daily", []byte("%PDF-1.3"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(file.Path))
	require.NoError(t, store.Remove(file.Path))
	_, err = os.Stat(file.Path)
	require.True(t, os.IsNotExist(err))
	require.Error(t, store.Remove(filepath.Join(dir, "..", "x.pdf")))
}
