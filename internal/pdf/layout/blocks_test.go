package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := New(DefaultConfig(), Banner{Brand: "CINE CONNECT", Title: "REPORTE"}, Footer{Disclaimer: "aviso"})
	require.NoError(t, err)
	return doc
}

func tableRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"idx": fmt.Sprintf("%d.", i+1), "name": fmt.Sprintf("row-%02d", i+1)}
	}
	return rows
}

var testColumns = []Column{
	{Key: "idx", Header: "#", Width: 40},
	{Key: "name", Header: "NOMBRE", Width: 260},
}

func rowIndexes(p *Page) []int {
	var out []int
	for _, op := range p.Find("table.row") {
		out = append(out, op.Index)
	}
	return out
}

func TestTableSpansPagesWithoutDuplicatingRows(t *testing.T) {
	doc := newTestDocument(t)
	geo := doc.Config().Geometry
	perPage := int((geo.ContentBottom() - geo.ContentTop() - 20) / 20)

	require.NoError(t, doc.Table(TableSpec{Columns: testColumns, Rows: tableRows(40)}))

	pages := doc.Pages()
	require.Len(t, pages, 2)
	first := rowIndexes(pages[0])
	second := rowIndexes(pages[1])
	require.Len(t, first, perPage)
	require.Equal(t, 0, first[0])
	require.Equal(t, perPage-1, first[len(first)-1])
	require.Equal(t, perPage, second[0])
	require.Len(t, append(first, second...), 40)
	for i, idx := range append(first, second...) {
		require.Equal(t, i, idx)
	}

	// the continuation starts at the top of the content area, without a header
	rows := pages[1].Find("table.row")
	require.InDelta(t, geo.ContentTop(), rows[0].Y, 1e-9)
	require.Empty(t, pages[1].Find("table.header"))
	require.Len(t, pages[0].Find("table.border"), 1)
	require.Len(t, pages[1].Find("table.border"), 1)
}

func TestTableRepeatHeaderOnContinuation(t *testing.T) {
	doc := newTestDocument(t)
	geo := doc.Config().Geometry

	require.NoError(t, doc.Table(TableSpec{Columns: testColumns, Rows: tableRows(40), RepeatHeader: true}))

	pages := doc.Pages()
	require.Len(t, pages, 2)
	require.Len(t, pages[1].Find("table.header"), 1)
	rows := pages[1].Find("table.row")
	require.InDelta(t, geo.ContentTop()+20, rows[0].Y, 1e-9)
	require.Len(t, append(rowIndexes(pages[0]), rowIndexes(pages[1])...), 40)
}

func TestTableZebraAndCells(t *testing.T) {
	doc := newTestDocument(t)
	pal := doc.Config().Palette
	require.NoError(t, doc.Table(TableSpec{
		Columns: []Column{
			{Key: "a", Header: "A", Width: 100},
			{Key: "b", Header: "B", Width: 100, Align: AlignRight},
		},
		Rows: []Row{{"a": "x", "b": "1"}, {"a": "y"}},
	}))
	page := doc.Pages()[0]
	rows := page.Find("table.row")
	require.Len(t, rows, 2)
	require.Equal(t, pal.ZebraEven, rows[0].Color)
	require.Equal(t, pal.ZebraOdd, rows[1].Color)

	cells := page.Find("table.cell")
	require.Len(t, cells, 4)
	require.Equal(t, "1", cells[1].Text)
	require.Equal(t, AlignRight, cells[1].Align)
	require.Equal(t, "", cells[3].Text)
	require.Len(t, page.Find("table.divider"), 2)
}

func TestTableValidation(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.Table(TableSpec{Columns: testColumns}))
	require.Empty(t, doc.Pages()[0].Find("table.header"))

	err := doc.Table(TableSpec{Columns: []Column{{Key: "a", Width: 600}}, Rows: tableRows(1)})
	require.ErrorIs(t, err, ErrTableTooWide)

	err = doc.Table(TableSpec{Rows: tableRows(1)})
	require.ErrorIs(t, err, ErrInvalidTable)

	err = doc.Table(TableSpec{Columns: testColumns, Rows: tableRows(1), RowHeight: 700})
	require.ErrorIs(t, err, ErrBlockTooTall)
}

func TestTableRowsTallerThanHalfAPage(t *testing.T) {
	doc := newTestDocument(t)
	geo := doc.Config().Geometry
	rowH := geo.UsableHeight() * 0.6

	err := doc.Table(TableSpec{Columns: testColumns, Rows: tableRows(3), RowHeight: rowH, RepeatHeader: true})
	require.NoError(t, err)

	pages := doc.Pages()
	require.Len(t, pages, 4)
	require.Len(t, pages[0].Find("table.header"), 1)
	require.Empty(t, rowIndexes(pages[0]))

	var seen []int
	for i, p := range pages[1:] {
		require.Empty(t, p.Find("table.header"), "page %d", i+2)
		seen = append(seen, rowIndexes(p)...)
		for _, op := range p.Find("table.row") {
			require.LessOrEqual(t, op.Y+op.H, geo.ContentBottom()+1e-9)
		}
	}
	require.Equal(t, []int{0, 1, 2}, seen)
}

func TestVBarChartRejectsBarsThatDoNotFit(t *testing.T) {
	doc := newTestDocument(t)
	points := make([]Point, 80)
	for i := range points {
		points[i] = Point{Label: fmt.Sprintf("d%d", i), Value: float64(i)}
	}
	err := doc.VBarChart(ChartSpec{Points: points, MaxBars: 80})
	require.ErrorIs(t, err, ErrChartTooDense)
	require.Empty(t, doc.Pages()[0].Find("chart.bar"))

	require.NoError(t, doc.VBarChart(ChartSpec{Points: points, MaxBars: 60}))
	for _, op := range doc.Pages()[0].Find("chart.bar") {
		require.Greater(t, op.W, 0.0)
	}

	cfg := DefaultConfig()
	cfg.ChartMaxBars = 80
	require.ErrorIs(t, cfg.Validate(), ErrChartTooDense)
}

func TestVBarChartKeepsMostRecentBars(t *testing.T) {
	doc := newTestDocument(t)
	points := make([]Point, 20)
	for i := range points {
		points[i] = Point{Label: fmt.Sprintf("d%02d", i+1), Value: float64(i + 1)}
	}
	require.NoError(t, doc.VBarChart(ChartSpec{Title: "Ventas", Points: points, MaxBars: 14}))

	page := doc.Pages()[0]
	bars := page.Find("chart.bar")
	require.Len(t, bars, 14)
	labels := page.Find("chart.label")
	require.Len(t, labels, 14)
	for i, op := range labels {
		require.Equal(t, fmt.Sprintf("d%02d", i+7), op.Text)
		require.Equal(t, i+6, bars[i].Index)
	}
	// the largest value takes the full plot height
	require.InDelta(t, doc.Config().ChartHeight-16, bars[13].H, 1e-9)
	require.Len(t, page.Find("chart.grid"), 4)
	require.Len(t, page.Find("chart.baseline"), 1)
}

func TestVBarChartAllZeroValues(t *testing.T) {
	doc := newTestDocument(t)
	points := []Point{{Label: "a"}, {Label: "b"}, {Label: "c", Value: math.NaN()}, {Label: "d", Value: -4}}
	require.NoError(t, doc.VBarChart(ChartSpec{Points: points}))

	bars := doc.Pages()[0].Find("chart.bar")
	require.Len(t, bars, 4)
	for _, b := range bars {
		require.False(t, math.IsNaN(b.H))
		require.Zero(t, b.H)
	}
}

func TestHBarChartPreservesOrder(t *testing.T) {
	doc := newTestDocument(t)
	require.NoError(t, doc.HBarChart(ChartSpec{
		Title:  "Participación por género (%)",
		Points: []Point{{Label: "Acción", Value: 35}, {Label: "Drama", Value: 20}},
	}))

	page := doc.Pages()[0]
	bars := page.Find("hbar.bar")
	require.Len(t, bars, 2)
	require.Greater(t, bars[0].W, bars[1].W)
	labels := page.Find("hbar.label")
	require.Equal(t, "Acción", labels[0].Text)
	require.Equal(t, "Drama", labels[1].Text)
	values := page.Find("hbar.value")
	require.Equal(t, "35%", values[0].Text)
	require.Less(t, bars[0].Y, bars[1].Y)
}

func TestChartsSkipEmptyInput(t *testing.T) {
	doc := newTestDocument(t)
	before := doc.Flow().Y()
	require.NoError(t, doc.VBarChart(ChartSpec{}))
	require.NoError(t, doc.HBarChart(ChartSpec{}))
	require.NoError(t, doc.KPIGrid(nil))
	require.NoError(t, doc.Pairs(nil))
	require.NoError(t, doc.Paragraph("", ParagraphOptions{}))
	require.Equal(t, before, doc.Flow().Y())
}

func TestAtomicBlockTallerThanPageFails(t *testing.T) {
	doc := newTestDocument(t)
	err := doc.VBarChart(ChartSpec{Points: []Point{{Label: "a", Value: 1}}, Height: 700})
	require.ErrorIs(t, err, ErrBlockTooTall)

	items := make([]KPI, 20)
	require.ErrorIs(t, doc.KPIGrid(items), ErrBlockTooTall)
}

func TestAtomicBlockMovesToNextPage(t *testing.T) {
	doc := newTestDocument(t)
	geo := doc.Config().Geometry
	doc.Flow().Advance(geo.UsableHeight() - 100)
	require.NoError(t, doc.VBarChart(ChartSpec{Points: []Point{{Label: "a", Value: 1}}}))
	pages := doc.Pages()
	require.Len(t, pages, 2)
	require.Empty(t, pages[0].Find("chart.bar"))
	require.Len(t, pages[1].Find("chart.bar"), 1)
}

func TestKPIGridDrawsCards(t *testing.T) {
	doc := newTestDocument(t)
	start := doc.Flow().Y()
	items := []KPI{
		{Label: "VENTAS TOTALES", Value: "Q60,000.00"},
		{Label: "BOLETOS VENDIDOS", Value: "1,200"},
		{Label: "PRECIO PROMEDIO", Value: "Q50.00", Hint: "por boleto"},
		{Label: "PELÍCULAS ACTIVAS", Value: "5"},
	}
	require.NoError(t, doc.KPIGrid(items))

	page := doc.Pages()[0]
	cards := page.Find("kpi.card")
	require.Len(t, cards, 4)
	require.Equal(t, cards[0].Y, cards[1].Y)
	require.Equal(t, cards[0].X, cards[2].X)
	require.Greater(t, cards[2].Y, cards[0].Y)
	require.Len(t, page.Find("kpi.hint"), 1)
	require.InDelta(t, start+doc.Config().KPIGridHeight(4), doc.Flow().Y(), 1e-9)
}

func TestSectionTitleAvoidsOrphans(t *testing.T) {
	doc := newTestDocument(t)
	geo := doc.Config().Geometry
	doc.Flow().Advance(geo.UsableHeight() - 100)
	require.NoError(t, doc.SectionTitle("TOP 10", 120))
	pages := doc.Pages()
	require.Len(t, pages, 2)
	require.Len(t, pages[1].Find("section.title"), 1)

	// a reserve larger than a page is only a hint
	require.NoError(t, doc.SectionTitle("ENORME", 5000))
}

func TestParagraphBreaksMidText(t *testing.T) {
	doc := newTestDocument(t)
	text := ""
	for i := 0; i < 60; i++ {
		if i > 0 {
			text += "\n"
		}
		text += fmt.Sprintf("línea %d", i)
	}
	require.NoError(t, doc.Paragraph(text, ParagraphOptions{}))
	pages := doc.Pages()
	require.Len(t, pages, 2)
	total := len(pages[0].Find("paragraph.line")) + len(pages[1].Find("paragraph.line"))
	require.Equal(t, 60, total)
	require.Equal(t, "línea 0", pages[0].Find("paragraph.line")[0].Text)
}
