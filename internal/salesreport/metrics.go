package salesreport

import (
	"fmt"

	"github.com/cineconnect/cineconnect/internal/pdf/layout"
)

const notAvailable = "N/A"

// DerivedMetrics computes the additional indicators shown as label/value pairs.
func DerivedMetrics(d ReportData, f Formatter) []layout.Pair {
	total := d.Stats.TotalSales
	avgPerMovie := 0.0
	if n := len(d.SalesByMovie); n > 0 {
		avgPerMovie = total / float64(n)
	}
	topName := notAvailable
	topRevenue := 0.0
	if m, ok := d.TopMovie(); ok {
		topName = m.MovieTitle
		topRevenue = m.TotalSales
	}
	topShare := 0.0
	if total != 0 {
		topShare = topRevenue / total * 100
	}
	topGenre := notAvailable
	if g, ok := d.TopGenre(); ok {
		topGenre = g.Name
	}
	bestDay := notAvailable
	if day, ok := d.BestDay(); ok {
		bestDay = fmt.Sprintf("%s (%s)", day.Fecha, f.Money(day.Ventas))
	}
	return []layout.Pair{
		{Label: "Ingreso promedio por película:", Value: f.Money(avgPerMovie)},
		{Label: "Película más taquillera:", Value: topName},
		{Label: "Participación del top 1:", Value: Share(topShare) + "% del total"},
		{Label: "Género más popular:", Value: topGenre},
		{Label: "Día de mayor venta:", Value: bestDay},
		{Label: "Ticket promedio histórico:", Value: f.Money(d.Stats.AveragePrice)},
	}
}
