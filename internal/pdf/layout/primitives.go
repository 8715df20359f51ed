package layout

import "strings"

// Rule draws a horizontal divider across the usable width at y. It does not
// reserve space or move the cursor.
func (d *Document) Rule(y float64, c Color) error {
	if err := d.writable(); err != nil {
		return err
	}
	geo := d.cfg.Geometry
	d.line("rule", geo.Margin, y, geo.Width-geo.Margin, y, c, 1)
	return nil
}

// SectionTitle reserves the title block plus reserve points so the title
// lands on the same page as the start of its content, then draws the title
// and its divider. The reserve is a hint and is capped at one page.
func (d *Document) SectionTitle(title string, reserve float64) error {
	if err := d.writable(); err != nil {
		return err
	}
	if reserve < 0 {
		reserve = 0
	}
	need := d.cfg.TitleBlockHeight + reserve
	if usable := d.cfg.Geometry.UsableHeight(); need > usable {
		need = usable
	}
	if _, err := d.flow.Reserve(need); err != nil {
		return err
	}
	geo := d.cfg.Geometry
	y := d.flow.Y()
	d.text("section.title", 0, geo.Margin, y, geo.UsableWidth(), title, d.cfg.TitleSize, true, d.cfg.Palette.Ink, AlignLeft)
	ruleY := y + d.cfg.TitleSize + 8
	d.line("section.rule", geo.Margin, ruleY, geo.Width-geo.Margin, ruleY, d.cfg.Palette.TitleRule, 1)
	d.flow.Advance(d.cfg.TitleBlockHeight)
	return nil
}

// ParagraphOptions tune Paragraph. Zero values fall back to the config.
type ParagraphOptions struct {
	FontSize float64
	LineGap  float64
	Bold     bool
	Align    Align
	Color    *Color
}

// Paragraph writes text line by line. Explicit newlines start a new line and
// long lines are word-wrapped to the usable width. Every line reserves its
// own height so a paragraph may continue on the next page.
func (d *Document) Paragraph(text string, opts ParagraphOptions) error {
	if err := d.writable(); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	size := opts.FontSize
	if size <= 0 {
		size = d.cfg.BodySize
	}
	gap := opts.LineGap
	if gap <= 0 {
		gap = d.cfg.LineGap
	}
	color := d.cfg.Palette.Sub
	if opts.Color != nil {
		color = *opts.Color
	}
	geo := d.cfg.Geometry
	step := size + gap + 2
	m := d.cfg.measurer()
	index := 0
	for _, raw := range strings.Split(text, "\n") {
		for _, line := range wrap(m, raw, geo.UsableWidth(), size, opts.Bold) {
			if _, err := d.flow.Reserve(step); err != nil {
				return err
			}
			d.text("paragraph.line", index, geo.Margin, d.flow.Y(), geo.UsableWidth(), line, size, opts.Bold, color, opts.Align)
			d.flow.Advance(step)
			index++
		}
	}
	return nil
}

// Pair is one label/value entry of a Pairs block.
type Pair struct {
	Label string
	Value string
}

// Pairs lays label/value entries out in two columns. Each grid row reserves
// its own height.
func (d *Document) Pairs(pairs []Pair) error {
	if err := d.writable(); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	geo := d.cfg.Geometry
	pal := d.cfg.Palette
	colW := (geo.UsableWidth() - d.cfg.PairColumnGap) / 2
	offset := d.cfg.PairValueOffset
	if offset > colW {
		offset = colW / 2
	}
	rowH := d.cfg.PairRowHeight
	size := d.cfg.TableFontSize
	for i := 0; i < len(pairs); i += 2 {
		if _, err := d.flow.Reserve(rowH); err != nil {
			return err
		}
		y := d.flow.Y()
		for j := i; j < i+2 && j < len(pairs); j++ {
			_, col := GridPosition(j, 2)
			x := geo.Margin + float64(col)*(colW+d.cfg.PairColumnGap)
			d.text("pairs.label", j, x, y, offset-6, pairs[j].Label, size, true, pal.Ink, AlignLeft)
			d.text("pairs.value", j, x+offset, y, colW-offset-6, pairs[j].Value, size, false, pal.Sub, AlignLeft)
		}
		d.flow.Advance(rowH)
	}
	d.flow.Advance(d.cfg.TableGap)
	return nil
}
