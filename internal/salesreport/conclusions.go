package salesreport

import "fmt"

// Revenue thresholds of the performance commentary.
const (
	ExcellentRevenue = 50000.0
	GoodRevenue      = 25000.0
)

const (
	sentenceExcellent = "• Excelente desempeño de ventas: El período muestra ingresos robustos por encima del promedio esperado."
	sentenceGood      = "• Buen desempeño de ventas: Los ingresos se mantienen en niveles satisfactorios."
	sentenceImprove   = "• Oportunidad de mejora: Las ventas están por debajo del potencial esperado; revisar estrategias de programación y marketing."
	sentencePortfolio = "• Recomendación: Mantener un portafolio balanceado aprovechando géneros dominantes mientras se testean nuevas opciones."
	sentenceNextSteps = "• Próximos pasos: Analizar horarios/salas de mayor rendimiento y ajustar oferta en días de baja demanda."
)

// Conclusions derives the commentary bullets from the aggregates. The
// performance sentence is chosen by total revenue; the top genre and top
// movie each add a sentence when present; two recommendations always close.
func Conclusions(d ReportData, f Formatter) []string {
	out := make([]string, 0, 5)
	switch revenue := d.Stats.TotalSales; {
	case revenue > ExcellentRevenue:
		out = append(out, sentenceExcellent)
	case revenue > GoodRevenue:
		out = append(out, sentenceGood)
	default:
		out = append(out, sentenceImprove)
	}
	if g, ok := d.TopGenre(); ok {
		out = append(out, fmt.Sprintf("• El género %s lidera con %s%% de preferencias, señalando una tendencia del público.", g.Name, Plain(g.Value)))
	}
	if m, ok := d.TopMovie(); ok {
		out = append(out, fmt.Sprintf("• \"%s\" encabeza la taquilla con %s.", m.MovieTitle, f.Money(m.TotalSales)))
	}
	return append(out, sentencePortfolio, sentenceNextSteps)
}
