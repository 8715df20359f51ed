package layout

import "fmt"

// Column declares one table column. Cells are looked up in each Row by Key.
type Column struct {
	Key    string
	Header string
	Align  Align
	Width  float64
}

// Row maps column keys to display strings. Missing keys render empty.
type Row map[string]string

// TableSpec is the input of Table. RowHeight zero uses the config default.
type TableSpec struct {
	Columns      []Column
	Rows         []Row
	RowHeight    float64
	RepeatHeader bool
}

// Width is the sum of the column widths.
func (s TableSpec) Width() float64 {
	var w float64
	for _, c := range s.Columns {
		w += c.Width
	}
	return w
}

func (d *Document) validateTable(spec TableSpec) error {
	if len(spec.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidTable)
	}
	for _, c := range spec.Columns {
		if c.Width <= 0 {
			return fmt.Errorf("%w: column %q width %.2f", ErrInvalidTable, c.Key, c.Width)
		}
	}
	if w, usable := spec.Width(), d.cfg.Geometry.UsableWidth(); w > usable+epsilon {
		return fmt.Errorf("%w: %.2f > %.2f", ErrTableTooWide, w, usable)
	}
	return nil
}

// Table draws a header row and zebra-striped data rows. Rows are reserved one
// at a time so the table may continue across pages; each page segment gets
// its own bounding border and, with RepeatHeader, its own header row. A table
// without rows draws nothing.
func (d *Document) Table(spec TableSpec) error {
	if err := d.writable(); err != nil {
		return err
	}
	if len(spec.Rows) == 0 {
		return nil
	}
	if err := d.validateTable(spec); err != nil {
		return err
	}
	rowH := spec.RowHeight
	if rowH <= 0 {
		rowH = d.cfg.TableRowHeight
	}
	keep := d.headerKeepsRow(rowH)
	need := rowH
	if keep {
		need = 2 * rowH
	}
	if _, err := d.flow.Reserve(need); err != nil {
		return err
	}
	segTop := d.flow.Y()
	d.tableHeader(spec, rowH)
	for i, row := range spec.Rows {
		if !d.flow.Fits(rowH) {
			d.tableBorder(spec, segTop, d.flow.Y())
			repeat := spec.RepeatHeader && keep
			need := rowH
			if repeat {
				need = 2 * rowH
			}
			if _, err := d.flow.Reserve(need); err != nil {
				return err
			}
			segTop = d.flow.Y()
			if repeat {
				d.tableHeader(spec, rowH)
			}
		}
		d.tableRow(spec, i, row, rowH)
	}
	d.tableBorder(spec, segTop, d.flow.Y())
	d.flow.Advance(d.cfg.TableGap)
	return nil
}

// headerKeepsRow reports whether a header and one row fit on a page together.
// Rows taller than half a page start the table with a lone header and are
// never preceded by a repeated one.
func (d *Document) headerKeepsRow(rowH float64) bool {
	return 2*rowH <= d.cfg.Geometry.UsableHeight()
}

func (d *Document) tableHeader(spec TableSpec, rowH float64) {
	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	y := d.flow.Y()
	d.flow.Draw(Op{Kind: OpRect, Tag: "table.header", X: geo.Margin, Y: y, W: spec.Width(), H: rowH, Color: pal.TableHead, Filled: true})
	d.cells(spec, "table.header.cell", -1, y, rowH, func(c Column) string { return c.Header }, true, pal.Ink)
	d.flow.Advance(rowH)
}

func (d *Document) tableRow(spec TableSpec, index int, row Row, rowH float64) {
	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	y := d.flow.Y()
	fill := pal.ZebraEven
	if index%2 == 1 {
		fill = pal.ZebraOdd
	}
	d.flow.Draw(Op{Kind: OpRect, Tag: "table.row", Index: index, X: geo.Margin, Y: y, W: spec.Width(), H: rowH, Color: fill, Filled: true})
	d.cells(spec, "table.cell", index, y, rowH, func(c Column) string { return row[c.Key] }, false, pal.Sub)
	d.line("table.divider", geo.Margin, y+rowH, geo.Margin+spec.Width(), y+rowH, pal.Line, 1)
	d.flow.Advance(rowH)
}

func (d *Document) cells(spec TableSpec, tag string, index int, y, rowH float64, value func(Column) string, bold bool, c Color) {
	size := d.cfg.TableFontSize
	pad := d.cfg.TablePadding
	x := d.cfg.Geometry.Margin
	ty := y + (rowH-size)/2
	for _, col := range spec.Columns {
		d.text(tag, index, x+pad, ty, col.Width-2*pad, value(col), size, bold, c, col.Align)
		x += col.Width
	}
}

func (d *Document) tableBorder(spec TableSpec, top, bottom float64) {
	if bottom <= top {
		return
	}
	d.flow.Draw(Op{Kind: OpRect, Tag: "table.border", X: d.cfg.Geometry.Margin, Y: top, W: spec.Width(), H: bottom - top,
		Stroke: d.cfg.Palette.Line, LineWidth: 1, Stroked: true})
}
