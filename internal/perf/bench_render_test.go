package perf

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/cineconnect/cineconnect/internal/salesreport"
)

func monthOfData() salesreport.ReportData {
	data := salesreport.ReportData{
		Stats: salesreport.Stats{TotalSales: 184250, TotalTickets: 3510, AveragePrice: 52.5, ActiveMovies: 18},
		Metadata: salesreport.Metadata{
			GeneratedAt: "2025-02-01T08:00:00Z",
			Period:      "monthly",
			DateRange:   salesreport.DateRange{Start: "2025-01-01", End: "2025-01-31"},
		},
	}
	for i := 0; i < 18; i++ {
		data.SalesByMovie = append(data.SalesByMovie, salesreport.MovieSales{
			MovieTitle:  fmt.Sprintf("Película de prueba con un título largo %02d", i+1),
			TotalSales:  float64(20000 - i*900),
			TicketCount: int64(380 - i*17),
		})
	}
	for i := 0; i < 31; i++ {
		data.DailyTrends = append(data.DailyTrends, salesreport.DailyTrend{
			Fecha:    fmt.Sprintf("%02d/01", i+1),
			FullDate: fmt.Sprintf("2025-01-%02d", i+1),
			Ventas:   float64(4000 + (i%7)*650),
			Boletos:  int64(80 + (i%7)*12),
		})
	}
	for i, g := range []string{"Acción", "Animación", "Drama", "Terror", "Musical", "Ciencia ficción"} {
		data.GenreDistribution = append(data.GenreDistribution, salesreport.GenreShare{Name: g, Value: float64(30 - i*5)})
	}
	return data
}

func TestSalesReportLatencyTargets(t *testing.T) {
	if testing.Short() {
		t.Skip("latency sampling skipped in short mode")
	}
	gen := salesreport.NewGenerator(salesreport.Options{})
	data := monthOfData()

	samples := make([]time.Duration, 0, 10)
	for i := 0; i < 10; i++ {
		start := time.Now()
		if _, err := gen.Generate(context.Background(), data, "monthly"); err != nil {
			t.Fatalf("generate: %v", err)
		}
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 2*time.Second {
		t.Fatalf("sales report latency regression: p95=%s threshold=%s", p95, 2*time.Second)
	}
}

func BenchmarkGenerateSalesReport(b *testing.B) {
	gen := salesreport.NewGenerator(salesreport.Options{})
	data := monthOfData()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := gen.Generate(context.Background(), data, "monthly"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLayoutSalesReport(b *testing.B) {
	gen := salesreport.NewGenerator(salesreport.Options{})
	data := monthOfData()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := gen.Layout(data, "monthly"); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
