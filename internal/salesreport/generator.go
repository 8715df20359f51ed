// Package salesreport assembles the cinema sales report from aggregated data.
package salesreport

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cineconnect/cineconnect/internal/pdf/fpdfsurface"
	"github.com/cineconnect/cineconnect/internal/pdf/layout"
)

// Section reserve hints keep each title on the page of its first content.
const (
	reserveSummary    = 120
	reserveTopMovies  = 260
	reserveGenres     = 180
	reserveTrends     = 220
	reserveMetrics    = 140
	reserveConclusion = 120

	topMoviesLimit    = 10
	movieTitleRunes   = 42
	trendMaxBars      = 14
	recentTrendWindow = 7
)

const (
	defaultBrand      = "CINE CONNECT"
	defaultDisclaimer = "Reporte generado automáticamente por Cine Connect Dashboard"
)

// Observer records generation outcomes.
type Observer interface {
	ObserveReport(kind string, pages int, elapsed time.Duration, err error)
}

// Options configures a Generator.
type Options struct {
	Layout     layout.Config
	Formatter  Formatter
	Brand      string
	Disclaimer string
	PageLabel  string
	Logger     *slog.Logger
	Observer   Observer
}

// Generator turns ReportData into a paginated document. It holds no
// per-report state and may be shared; every call builds its own Document.
type Generator struct {
	cfg        layout.Config
	format     Formatter
	brand      string
	disclaimer string
	pageLabel  string
	logger     *slog.Logger
	observer   Observer
}

// NewGenerator applies defaults to opts.
func NewGenerator(opts Options) *Generator {
	cfg := opts.Layout
	if cfg.Geometry == (layout.Geometry{}) {
		cfg = layout.DefaultConfig()
	}
	if cfg.Measurer == nil {
		cfg.Measurer = fpdfsurface.NewMeasurer(cfg.Font)
	}
	brand := opts.Brand
	if strings.TrimSpace(brand) == "" {
		brand = defaultBrand
	}
	disclaimer := opts.Disclaimer
	if strings.TrimSpace(disclaimer) == "" {
		disclaimer = defaultDisclaimer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		cfg:        cfg,
		format:     opts.Formatter,
		brand:      brand,
		disclaimer: disclaimer,
		pageLabel:  opts.PageLabel,
		logger:     logger,
		observer:   opts.Observer,
	}
}

// Report is a finished PDF.
type Report struct {
	PDF   []byte
	Pages int
}

// Generate lays the report out, runs the footer pass and encodes the PDF.
func (g *Generator) Generate(ctx context.Context, data ReportData, period string) (rep Report, err error) {
	started := time.Now()
	defer func() {
		if g.observer != nil {
			g.observer.ObserveReport("sales", rep.Pages, time.Since(started), err)
		}
	}()
	doc, err := g.Layout(data, period)
	if err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	surface := fpdfsurface.New(g.cfg.Geometry, g.cfg.Font, g.info(data, period))
	var buf bytes.Buffer
	if err := doc.Render(surface, &buf); err != nil {
		return Report{}, fmt.Errorf("salesreport: render: %w", err)
	}
	g.logger.Debug("sales report generated",
		slog.String("period", period),
		slog.Int("pages", doc.PageCount()),
		slog.Int("bytes", buf.Len()))
	return Report{PDF: buf.Bytes(), Pages: doc.PageCount()}, nil
}

// Layout builds and finalizes the document without encoding it.
func (g *Generator) Layout(data ReportData, period string) (*layout.Document, error) {
	doc, err := layout.New(g.cfg, g.banner(data, period), layout.Footer{Disclaimer: g.disclaimer, PageLabel: g.pageLabel})
	if err != nil {
		return nil, err
	}
	sections := []func(*layout.Document, ReportData) error{
		g.summary,
		g.topMovies,
		g.genres,
		g.trends,
		g.metrics,
		g.conclusions,
	}
	for _, section := range sections {
		if err := section(doc, data); err != nil {
			return nil, fmt.Errorf("salesreport: layout: %w", err)
		}
	}
	if err := doc.Finalize(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *Generator) banner(data ReportData, period string) layout.Banner {
	return layout.Banner{
		Brand: g.brand,
		Title: "REPORTE DE VENTAS - " + strings.ToUpper(period),
		Lines: []string{
			"Generado: " + data.Metadata.GeneratedAt,
			fmt.Sprintf("Período: %s - %s", data.Metadata.DateRange.Start, data.Metadata.DateRange.End),
		},
	}
}

func (g *Generator) info(data ReportData, period string) fpdfsurface.Info {
	created, _ := time.Parse(time.RFC3339, data.Metadata.GeneratedAt)
	return fpdfsurface.Info{
		Title:    "Reporte de Ventas - " + period,
		Subject:  "Reporte de ventas y estadísticas del cine",
		Author:   "Cine Connect",
		Keywords: "ventas, cine, reporte, estadísticas",
		Creator:  "cineconnect",
		Created:  created,
	}
}

func (g *Generator) summary(doc *layout.Document, d ReportData) error {
	if err := doc.SectionTitle("RESUMEN EJECUTIVO", reserveSummary); err != nil {
		return err
	}
	return doc.KPIGrid([]layout.KPI{
		{Label: "VENTAS TOTALES", Value: g.format.Money(d.Stats.TotalSales)},
		{Label: "BOLETOS VENDIDOS", Value: g.format.Int(d.Stats.TotalTickets)},
		{Label: "PRECIO PROMEDIO", Value: g.format.Money(d.Stats.AveragePrice)},
		{Label: "PELÍCULAS ACTIVAS", Value: fmt.Sprintf("%d", d.Stats.ActiveMovies)},
	})
}

func (g *Generator) topMovies(doc *layout.Document, d ReportData) error {
	if len(d.SalesByMovie) == 0 {
		return nil
	}
	if err := doc.SectionTitle(fmt.Sprintf("TOP %d PELÍCULAS POR VENTAS", topMoviesLimit), reserveTopMovies); err != nil {
		return err
	}
	movies := d.SalesByMovie
	if len(movies) > topMoviesLimit {
		movies = movies[:topMoviesLimit]
	}
	rows := make([]layout.Row, len(movies))
	for i, m := range movies {
		rows[i] = layout.Row{
			"idx":     fmt.Sprintf("%d.", i+1),
			"title":   layout.Truncate(m.MovieTitle, movieTitleRunes),
			"sales":   g.format.Money(m.TotalSales),
			"tickets": g.format.Int(m.TicketCount),
		}
	}
	return doc.Table(layout.TableSpec{
		Columns: []layout.Column{
			{Key: "idx", Header: "#", Width: 40},
			{Key: "title", Header: "PELÍCULA", Width: 245},
			{Key: "sales", Header: "VENTAS", Align: layout.AlignRight, Width: 120},
			{Key: "tickets", Header: "BOLETOS", Align: layout.AlignRight, Width: 90},
		},
		Rows:         rows,
		RepeatHeader: true,
	})
}

func (g *Generator) genres(doc *layout.Document, d ReportData) error {
	if len(d.GenreDistribution) == 0 {
		return nil
	}
	if err := doc.SectionTitle("DISTRIBUCIÓN POR GÉNERO", reserveGenres); err != nil {
		return err
	}
	points := make([]layout.Point, len(d.GenreDistribution))
	for i, genre := range d.GenreDistribution {
		points[i] = layout.Point{Label: genre.Name, Value: genre.Value}
	}
	return doc.HBarChart(layout.ChartSpec{Title: "Participación por género (%)", Points: points})
}

func (g *Generator) trends(doc *layout.Document, d ReportData) error {
	if len(d.DailyTrends) == 0 {
		return nil
	}
	if err := doc.SectionTitle("TENDENCIAS DIARIAS DE VENTAS", reserveTrends); err != nil {
		return err
	}
	points := make([]layout.Point, len(d.DailyTrends))
	for i, day := range d.DailyTrends {
		points[i] = layout.Point{Label: day.Fecha, Value: day.Ventas}
	}
	if err := doc.VBarChart(layout.ChartSpec{
		Title:   "Ventas (Q) por día (últimos registros)",
		Points:  points,
		Format:  g.format.Money,
		MaxBars: trendMaxBars,
	}); err != nil {
		return err
	}
	recent := d.DailyTrends
	if len(recent) > recentTrendWindow {
		recent = recent[len(recent)-recentTrendWindow:]
	}
	rows := make([]layout.Row, len(recent))
	for i, day := range recent {
		avg := 0.0
		if day.Boletos != 0 {
			avg = day.Ventas / float64(day.Boletos)
		}
		rows[i] = layout.Row{
			"date":    day.Fecha,
			"sales":   g.format.Money(day.Ventas),
			"tickets": g.format.Int(day.Boletos),
			"avg":     g.format.Money(avg),
		}
	}
	return doc.Table(layout.TableSpec{
		Columns: []layout.Column{
			{Key: "date", Header: "FECHA", Width: 115},
			{Key: "sales", Header: "VENTAS", Align: layout.AlignRight, Width: 115},
			{Key: "tickets", Header: "BOLETOS", Align: layout.AlignRight, Width: 115},
			{Key: "avg", Header: "TICKET PROMEDIO", Align: layout.AlignRight, Width: 150},
		},
		Rows: rows,
	})
}

func (g *Generator) metrics(doc *layout.Document, d ReportData) error {
	if err := doc.SectionTitle("MÉTRICAS ADICIONALES", reserveMetrics); err != nil {
		return err
	}
	return doc.Pairs(DerivedMetrics(d, g.format))
}

func (g *Generator) conclusions(doc *layout.Document, d ReportData) error {
	if err := doc.SectionTitle("ANÁLISIS Y RECOMENDACIONES", reserveConclusion); err != nil {
		return err
	}
	return doc.Paragraph(strings.Join(Conclusions(d, g.format), "\n"), layout.ParagraphOptions{FontSize: 10, LineGap: 2})
}
