package layout

import (
	"math"
	"strconv"
)

// Point is one (label, value) entry of a chart.
type Point struct {
	Label string
	Value float64
}

// ChartSpec is the input of the bar charts. Zero MaxBars and Height use the
// config defaults; a nil Format prints the plain number.
type ChartSpec struct {
	Title   string
	Points  []Point
	Format  func(float64) string
	MaxBars int
	Height  float64
}

func (s ChartSpec) format(v float64) string {
	if s.Format != nil {
		return s.Format(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// barValue maps negative, NaN and infinite values to zero.
func barValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// scaleMax returns max(1, values...) so all-zero series never divide by zero.
func scaleMax(points []Point) float64 {
	maxVal := 1.0
	for _, p := range points {
		if v := barValue(p.Value); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// Window keeps the last n points, preserving their order.
func Window(points []Point, n int) []Point {
	if n <= 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

// VBarChartHeight is the space reserved by a vertical bar chart of plot height h.
func (c Config) VBarChartHeight(h float64) float64 {
	if h <= 0 {
		h = c.ChartHeight
	}
	return h + c.ChartLabelMargin
}

// VBarChart draws the most recent MaxBars points as vertical bars scaled to
// the largest value, with evenly spaced gridlines, a baseline, a value label
// above each bar and the category label below it. The chart is atomic.
func (d *Document) VBarChart(spec ChartSpec) error {
	if err := d.writable(); err != nil {
		return err
	}
	if len(spec.Points) == 0 {
		return nil
	}
	maxBars := spec.MaxBars
	if maxBars <= 0 {
		maxBars = d.cfg.ChartMaxBars
	}
	height := spec.Height
	if height <= 0 {
		height = d.cfg.ChartHeight
	}
	points := Window(spec.Points, maxBars)
	offset := len(spec.Points) - len(points)
	barW, err := d.cfg.BarWidth(len(points))
	if err != nil {
		return err
	}
	total := d.cfg.VBarChartHeight(height)
	if _, err := d.flow.Reserve(total); err != nil {
		return err
	}

	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	x0, width := geo.Margin, geo.UsableWidth()
	top := d.flow.Y()
	if spec.Title != "" {
		d.text("chart.title", 0, x0, top, width, spec.Title, d.cfg.ChartTitleSize, true, pal.Ink, AlignLeft)
	}
	y0 := top + 18
	baseY := y0 + height
	steps := d.cfg.ChartSteps
	for i := 0; i < steps; i++ {
		gy := y0 + height*float64(i)/float64(steps)
		d.line("chart.grid", x0, gy, x0+width, gy, pal.Gridline, 1)
	}
	d.line("chart.baseline", x0, baseY, x0+width, baseY, pal.Line, 1.2)

	maxVal := scaleMax(points)
	plotH := height - 16
	gap := d.cfg.ChartBarGap
	x := x0 + gap
	for i, p := range points {
		v := barValue(p.Value)
		h := v / maxVal * plotH
		idx := offset + i
		d.flow.Draw(Op{Kind: OpRect, Tag: "chart.bar", Index: idx, X: x, Y: baseY - h, W: barW, H: h, Color: pal.Bar, Filled: true})
		d.text("chart.value", idx, x, baseY-h-12, barW, spec.format(v), d.cfg.SmallSize, false, pal.Sub, AlignCenter)
		d.text("chart.label", idx, x, baseY+4, barW, Truncate(p.Label, d.cfg.ChartLabelRunes), d.cfg.SmallSize, false, pal.Faint, AlignCenter)
		x += barW + gap
	}
	d.flow.Advance(total)
	return nil
}

// HBarChartHeight is the space reserved by a horizontal chart of n rows.
func (c Config) HBarChartHeight(n int) float64 {
	return float64(n)*(c.HBarRowHeight+c.HBarRowGap) + c.HBarTitleHeight
}

// HBarChart draws one horizontal bar per point in the given order, scaled to
// the largest value. Values render through Format, defaulting to "v%".
func (d *Document) HBarChart(spec ChartSpec) error {
	if err := d.writable(); err != nil {
		return err
	}
	if len(spec.Points) == 0 {
		return nil
	}
	total := d.cfg.HBarChartHeight(len(spec.Points))
	if _, err := d.flow.Reserve(total); err != nil {
		return err
	}
	if spec.Format == nil {
		spec.Format = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "%" }
	}
	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	width := geo.UsableWidth()
	top := d.flow.Y()
	if spec.Title != "" {
		d.text("chart.title", 0, geo.Margin, top, width, spec.Title, d.cfg.ChartTitleSize, true, pal.Ink, AlignLeft)
	}
	maxVal := scaleMax(spec.Points)
	barX := geo.Margin + d.cfg.HBarLabelWidth
	plotW := width - d.cfg.HBarLabelWidth - d.cfg.HBarValueWidth
	y := top + 20
	for i, p := range spec.Points {
		v := barValue(p.Value)
		barW := plotW * v / maxVal
		d.text("hbar.label", i, geo.Margin, y, d.cfg.HBarLabelWidth-10, Truncate(p.Label, d.cfg.HBarLabelRunes), d.cfg.TableFontSize, false, pal.Sub, AlignLeft)
		d.flow.Draw(Op{Kind: OpRect, Tag: "hbar.bar", Index: i, X: barX, Y: y + 2, W: barW, H: d.cfg.HBarRowHeight, Color: pal.Bar, Filled: true})
		d.text("hbar.value", i, barX+barW+6, y, d.cfg.HBarValueWidth-6, spec.format(v), d.cfg.SmallSize, false, pal.Faint, AlignLeft)
		y += d.cfg.HBarRowHeight + d.cfg.HBarRowGap
	}
	d.flow.Advance(total)
	return nil
}
