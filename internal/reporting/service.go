// Package reporting aggregates booking data into the input of the sales report.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cineconnect/cineconnect/internal/salesreport"
)

// Repository exposes the aggregation queries the service relies on.
type Repository interface {
	Stats(ctx context.Context, rg Range) (StatsRow, error)
	SalesByMovie(ctx context.Context, rg Range) ([]MovieRow, error)
	DailyTrends(ctx context.Context, rg Range) ([]DayRow, error)
	GenreDistribution(ctx context.Context, rg Range) ([]GenreRow, error)
}

// Service coordinates query execution with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithClock overrides the reference time used to resolve relative periods.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Load resolves q and returns the cached or freshly aggregated report data.
func (s *Service) Load(ctx context.Context, q Query) (salesreport.ReportData, error) {
	if s == nil || s.repo == nil {
		return salesreport.ReportData{}, fmt.Errorf("reporting: service not initialised")
	}
	now := s.now()
	rg, err := q.Resolve(now)
	if err != nil {
		return salesreport.ReportData{}, err
	}
	key, err := s.cache.BuildKey(ctx, "reporting", "sales", rg.Key())
	if err != nil {
		return salesreport.ReportData{}, err
	}
	var data salesreport.ReportData
	err = s.cache.FetchJSON(ctx, key, &data, func(ctx context.Context) (any, error) {
		return s.aggregate(ctx, rg)
	})
	if err != nil {
		return salesreport.ReportData{}, err
	}
	// generation time always reflects this call, cached aggregates or not
	data.Metadata.GeneratedAt = now.UTC().Format(time.RFC3339)
	return data, nil
}

// LoadSales adapts Load to the generator's data source contract.
func (s *Service) LoadSales(ctx context.Context, period string, start, end time.Time) (salesreport.ReportData, error) {
	return s.Load(ctx, Query{Period: period, Start: start, End: end})
}

// Warm loads a relative period so later requests hit the cache.
func (s *Service) Warm(ctx context.Context, period string) error {
	_, err := s.Load(ctx, Query{Period: period})
	return err
}

// Invalidate drops every cached aggregate, e.g. after new bookings land.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) aggregate(ctx context.Context, rg Range) (salesreport.ReportData, error) {
	var (
		stats  StatsRow
		movies []MovieRow
		days   []DayRow
		genres []GenreRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.repo.Stats(gctx, rg)
		return wrapQuery("stats", err)
	})
	g.Go(func() (err error) {
		movies, err = s.repo.SalesByMovie(gctx, rg)
		return wrapQuery("sales by movie", err)
	})
	g.Go(func() (err error) {
		days, err = s.repo.DailyTrends(gctx, rg)
		return wrapQuery("daily trends", err)
	})
	g.Go(func() (err error) {
		genres, err = s.repo.GenreDistribution(gctx, rg)
		return wrapQuery("genre distribution", err)
	})
	if err := g.Wait(); err != nil {
		return salesreport.ReportData{}, err
	}
	s.logger.Debug("sales aggregated",
		slog.String("range", rg.Key()),
		slog.Int("movies", len(movies)),
		slog.Int("days", len(days)))
	return assemble(rg, stats, movies, days, genres), nil
}

func wrapQuery(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("reporting: %s: %w", name, err)
}

func assemble(rg Range, stats StatsRow, movies []MovieRow, days []DayRow, genres []GenreRow) salesreport.ReportData {
	data := salesreport.ReportData{
		Stats: salesreport.Stats{
			TotalSales:   stats.TotalSales,
			TotalTickets: stats.TotalTickets,
			AveragePrice: stats.AveragePrice,
			ActiveMovies: stats.ActiveMovies,
		},
		SalesByMovie:      make([]salesreport.MovieSales, 0, len(movies)),
		DailyTrends:       make([]salesreport.DailyTrend, 0, len(days)),
		GenreDistribution: make([]salesreport.GenreShare, 0, len(genres)),
		Metadata: salesreport.Metadata{
			Period: rg.Period,
			DateRange: salesreport.DateRange{
				Start: rg.Start.Format(dateLayout),
				End:   rg.End.Format(dateLayout),
			},
		},
	}
	for _, m := range movies {
		data.SalesByMovie = append(data.SalesByMovie, salesreport.MovieSales{MovieTitle: m.Title, TotalSales: m.Sales, TicketCount: m.Tickets})
	}
	for _, d := range days {
		data.DailyTrends = append(data.DailyTrends, salesreport.DailyTrend{
			Fecha:    d.Day.Format("02/01"),
			FullDate: d.Day.Format(dateLayout),
			Ventas:   d.Sales,
			Boletos:  d.Tickets,
		})
	}
	for _, g := range genres {
		data.GenreDistribution = append(data.GenreDistribution, salesreport.GenreShare{Name: g.Name, Value: g.Share})
	}
	return data
}
