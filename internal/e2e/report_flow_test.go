package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/cineconnect/cineconnect/internal/app"
	"github.com/cineconnect/cineconnect/internal/observability"
	"github.com/cineconnect/cineconnect/internal/salesreport"
	salesreporthttp "github.com/cineconnect/cineconnect/internal/salesreport/http"
	"github.com/cineconnect/cineconnect/jobs"
)

type memRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]salesreport.Run
}

func (m *memRuns) InsertRun(_ context.Context, run salesreport.Run) (salesreport.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Status = salesreport.StatusPending
	m.runs[run.ID] = run
	return run, nil
}

func (m *memRuns) GetRun(_ context.Context, id uuid.UUID) (salesreport.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return salesreport.Run{}, salesreport.ErrRunNotFound
	}
	return run, nil
}

func (m *memRuns) ListRuns(context.Context, int) ([]salesreport.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]salesreport.Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

func (m *memRuns) update(id uuid.UUID, fn func(*salesreport.Run) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return salesreport.ErrRunNotFound
	}
	if err := fn(&run); err != nil {
		return err
	}
	m.runs[id] = run
	return nil
}

func (m *memRuns) MarkInProgress(_ context.Context, id uuid.UUID) error {
	return m.update(id, func(r *salesreport.Run) error {
		if r.Status != salesreport.StatusPending {
			return salesreport.ErrInvalidStatus
		}
		r.Status = salesreport.StatusInProgress
		return nil
	})
}

func (m *memRuns) MarkReady(_ context.Context, id uuid.UUID, file salesreport.StoredFile, pages int, at time.Time) error {
	return m.update(id, func(r *salesreport.Run) error {
		r.Status = salesreport.StatusReady
		r.FilePath, r.FileName = file.Path, file.Name
		r.FileSize, r.PageCount, r.GeneratedAt = &file.Size, &pages, &at
		return nil
	})
}

func (m *memRuns) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	return m.update(id, func(r *salesreport.Run) error {
		r.Status = salesreport.StatusFailed
		r.ErrorMessage = msg
		return nil
	})
}

// inlineQueue hands every enqueued task straight to the job, standing in
// for the worker process.
type inlineQueue struct {
	job *salesreport.Job
}

func (q *inlineQueue) EnqueueSalesReport(ctx context.Context, payload jobs.SalesReportPayload) (*asynq.TaskInfo, error) {
	task, err := jobs.NewSalesReportTask(payload.RunID)
	if err != nil {
		return nil, err
	}
	if err := q.job.Handle(ctx, task); err != nil {
		return nil, err
	}
	return &asynq.TaskInfo{ID: payload.RunID, Queue: jobs.QueueDefault, Type: task.Type()}, nil
}

type fixedSource struct{}

func (fixedSource) LoadSales(_ context.Context, period string, start, end time.Time) (salesreport.ReportData, error) {
	data := salesreport.ReportData{
		Stats: salesreport.Stats{TotalSales: 31500, TotalTickets: 600, AveragePrice: 52.5, ActiveMovies: 3},
		GenreDistribution: []salesreport.GenreShare{
			{Name: "Acción", Value: 50},
			{Name: "Drama", Value: 50},
		},
		Metadata: salesreport.Metadata{
			GeneratedAt: "2025-03-15T18:30:00Z",
			Period:      period,
			DateRange:   salesreport.DateRange{Start: "2025-03-09", End: "2025-03-15"},
		},
	}
	for i := 0; i < 3; i++ {
		data.SalesByMovie = append(data.SalesByMovie, salesreport.MovieSales{
			MovieTitle:  fmt.Sprintf("Película %d", i+1),
			TotalSales:  10500,
			TicketCount: 200,
		})
	}
	return data, nil
}

func TestQueuedSalesReportIsDownloadable(t *testing.T) {
	metrics := observability.NewMetrics()
	gen := salesreport.NewGenerator(salesreport.Options{Observer: metrics})
	store := salesreport.NewStore(t.TempDir())
	repo := &memRuns{runs: map[uuid.UUID]salesreport.Run{}}

	queue := &inlineQueue{}
	runs := salesreport.NewService(repo, queue, nil, nil)
	queue.job = salesreport.NewJob(salesreport.JobConfig{
		Service:   runs,
		Source:    fixedSource{},
		Generator: gen,
		Store:     store,
	})

	router := app.NewRouter(app.RouterParams{
		Config:        &app.Config{AppEnv: "test"},
		ReportHandler: salesreporthttp.NewHandler(nil, gen, runs, store, nil),
		Metrics:       metrics,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/reports/sales", "application/json", strings.NewReader(`{"period":"weekly"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)

	statusResp, err := http.Get(srv.URL + location)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var run salesreport.Run
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&run))
	require.Equal(t, salesreport.StatusReady, run.Status)
	require.NotNil(t, run.PageCount)

	dl, err := http.Get(srv.URL + location + "/download")
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	pdf, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	require.EqualValues(t, *run.FileSize, len(pdf))

	m, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer m.Body.Close()
	body, _ := io.ReadAll(m.Body)
	require.Contains(t, string(body), `cineconnect_reports_generated_total{kind="sales",outcome="ok"} 1`)
}
