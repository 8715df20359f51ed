package layout

// KPI is one stat card.
type KPI struct {
	Label string
	Value string
	Hint  string
}

// GridPosition maps a flat card index onto a row-major grid.
func GridPosition(index, columns int) (row, col int) {
	if columns <= 0 {
		columns = 1
	}
	return index / columns, index % columns
}

// KPIGridHeight is the space a grid of n cards occupies.
func (c Config) KPIGridHeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	rows := (n + c.KPIColumns - 1) / c.KPIColumns
	return float64(rows) * (c.KPIRowHeight + c.KPIRowGap)
}

// KPIGrid draws the cards as one atomic block.
func (d *Document) KPIGrid(items []KPI) error {
	if err := d.writable(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	if _, err := d.flow.Reserve(d.cfg.KPIGridHeight(len(items))); err != nil {
		return err
	}
	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	cols := d.cfg.KPIColumns
	colW := (geo.UsableWidth() - d.cfg.KPIColumnGap*float64(cols-1)) / float64(cols)
	top := d.flow.Y()
	for i, it := range items {
		row, col := GridPosition(i, cols)
		x := geo.Margin + float64(col)*(colW+d.cfg.KPIColumnGap)
		y := top + float64(row)*(d.cfg.KPIRowHeight+d.cfg.KPIRowGap)
		d.flow.Draw(Op{Kind: OpRoundedRect, Tag: "kpi.card", Index: i, X: x, Y: y, W: colW, H: d.cfg.KPIRowHeight,
			Radius: d.cfg.KPIRadius, Color: pal.Light, Stroke: pal.Line, LineWidth: 1, Filled: true, Stroked: true})
		inner := colW - 24
		d.text("kpi.label", i, x+12, y+10, inner, it.Label, 9, true, pal.Sub, AlignLeft)
		d.text("kpi.value", i, x+12, y+28, inner, it.Value, 16, true, pal.Brand, AlignLeft)
		if it.Hint != "" {
			d.text("kpi.hint", i, x+12, y+46, inner, it.Hint, d.cfg.SmallSize, false, pal.Faint, AlignLeft)
		}
	}
	d.flow.Advance(d.cfg.KPIGridHeight(len(items)))
	return nil
}
