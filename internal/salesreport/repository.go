package salesreport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxErrorLength = 500

// Repository persists report runs in the report_runs table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository wrapper.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ready() error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("salesreport: repository not initialised")
	}
	return nil
}

const runColumns = `id, period, range_start, range_end, status, COALESCE(file_path,''), COALESCE(file_name,''),
    file_size, page_count, COALESCE(error_message,''), generated_at, created_at, updated_at`

// InsertRun stores a new pending run.
func (r *Repository) InsertRun(ctx context.Context, run Run) (Run, error) {
	if err := r.ready(); err != nil {
		return Run{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO report_runs (id, period, range_start, range_end, status)
VALUES ($1,$2,$3,$4,'PENDING')
RETURNING `+runColumns, run.ID, run.Period, run.RangeStart, run.RangeEnd)
	created, err := scanRun(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Run{}, ErrDuplicateRun
		}
		return Run{}, err
	}
	return created, nil
}

// GetRun loads a run by id.
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	if err := r.ready(); err != nil {
		return Run{}, err
	}
	run, err := scanRun(r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM report_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the latest runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM report_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkInProgress transitions a pending run to in-progress.
func (r *Repository) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	if err := r.ready(); err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE report_runs
SET status = 'IN_PROGRESS', error_message = NULL, updated_at = NOW()
WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

// MarkReady stores the published file and marks the run as ready.
func (r *Repository) MarkReady(ctx context.Context, id uuid.UUID, file StoredFile, pages int, generatedAt time.Time) error {
	if err := r.ready(); err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE report_runs
SET status = 'READY', file_path = $2, file_name = $3, file_size = $4, page_count = $5,
    generated_at = $6, updated_at = NOW()
WHERE id = $1`, id, file.Path, file.Name, file.Size, pages, generatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// MarkFailed captures the error message and switches the status to failed.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	if err := r.ready(); err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE report_runs SET status = 'FAILED', error_message = $2, updated_at = NOW() WHERE id = $1`, id, truncateError(msg))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run    Run
		status string
		size   *int64
		pages  *int32
	)
	if err := row.Scan(&run.ID, &run.Period, &run.RangeStart, &run.RangeEnd, &status, &run.FilePath, &run.FileName,
		&size, &pages, &run.ErrorMessage, &run.GeneratedAt, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return Run{}, err
	}
	run.Status = NormaliseStatus(status)
	run.FileSize = size
	if pages != nil {
		n := int(*pages)
		run.PageCount = &n
	}
	return run, nil
}

func truncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxErrorLength {
		return msg
	}
	return string(runes[:maxErrorLength])
}
