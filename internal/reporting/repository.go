package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRow holds the headline totals of a range.
type StatsRow struct {
	TotalSales   float64
	TotalTickets int64
	AveragePrice float64
	ActiveMovies int64
}

// MovieRow is one movie's sales within a range.
type MovieRow struct {
	Title   string
	Sales   float64
	Tickets int64
}

// DayRow is one day's sales within a range.
type DayRow struct {
	Day     time.Time
	Sales   float64
	Tickets int64
}

// GenreRow is one genre's ticket share, in percent.
type GenreRow struct {
	Name  string
	Share float64
}

// PGRepository runs the aggregation queries against Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a repository wrapper.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ready() error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("reporting: repository not initialised")
	}
	return nil
}

func dateArgs(rg Range) (pgtype.Timestamptz, pgtype.Timestamptz) {
	return pgtype.Timestamptz{Time: rg.Start, Valid: true}, pgtype.Timestamptz{Time: rg.endExclusive(), Valid: true}
}

// Stats sums confirmed bookings in the range.
func (r *PGRepository) Stats(ctx context.Context, rg Range) (StatsRow, error) {
	if err := r.ready(); err != nil {
		return StatsRow{}, err
	}
	from, to := dateArgs(rg)
	const query = `SELECT
    COALESCE(SUM(b.total_price), 0)::float8,
    COALESCE(SUM(b.ticket_count), 0)::bigint,
    COALESCE(SUM(b.total_price) / NULLIF(SUM(b.ticket_count), 0), 0)::float8,
    COUNT(DISTINCT s.movie_id)
FROM bookings b
JOIN showtimes s ON s.id = b.showtime_id
WHERE b.status = 'confirmed' AND b.purchase_date >= $1 AND b.purchase_date < $2`
	var row StatsRow
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&row.TotalSales, &row.TotalTickets, &row.AveragePrice, &row.ActiveMovies); err != nil {
		return StatsRow{}, err
	}
	return row, nil
}

// SalesByMovie ranks movies by revenue, highest first.
func (r *PGRepository) SalesByMovie(ctx context.Context, rg Range) ([]MovieRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	from, to := dateArgs(rg)
	rows, err := r.pool.Query(ctx, `SELECT m.title, SUM(b.total_price)::float8, SUM(b.ticket_count)::bigint
FROM bookings b
JOIN showtimes s ON s.id = b.showtime_id
JOIN movies m ON m.id = s.movie_id
WHERE b.status = 'confirmed' AND b.purchase_date >= $1 AND b.purchase_date < $2
GROUP BY m.id, m.title
ORDER BY 2 DESC, m.title`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (MovieRow, error) {
		var m MovieRow
		err := row.Scan(&m.Title, &m.Sales, &m.Tickets)
		return m, err
	})
}

// DailyTrends returns one row per day with sales, oldest first.
func (r *PGRepository) DailyTrends(ctx context.Context, rg Range) ([]DayRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	from, to := dateArgs(rg)
	rows, err := r.pool.Query(ctx, `SELECT date_trunc('day', b.purchase_date)::date, SUM(b.total_price)::float8, SUM(b.ticket_count)::bigint
FROM bookings b
WHERE b.status = 'confirmed' AND b.purchase_date >= $1 AND b.purchase_date < $2
GROUP BY 1
ORDER BY 1`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DayRow, error) {
		var d DayRow
		err := row.Scan(&d.Day, &d.Sales, &d.Tickets)
		return d, err
	})
}

// GenreDistribution returns each genre's share of tickets, largest first.
func (r *PGRepository) GenreDistribution(ctx context.Context, rg Range) ([]GenreRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	from, to := dateArgs(rg)
	rows, err := r.pool.Query(ctx, `SELECT m.genre,
    ROUND(100.0 * SUM(b.ticket_count) / NULLIF(SUM(SUM(b.ticket_count)) OVER (), 0), 1)::float8
FROM bookings b
JOIN showtimes s ON s.id = b.showtime_id
JOIN movies m ON m.id = s.movie_id
WHERE b.status = 'confirmed' AND b.purchase_date >= $1 AND b.purchase_date < $2
GROUP BY m.genre
ORDER BY 2 DESC, m.genre`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (GenreRow, error) {
		var g GenreRow
		err := row.Scan(&g.Name, &g.Share)
		return g, err
	})
}
