package layout

import "fmt"

// DefaultPageLabel is the footer page-number format.
const DefaultPageLabel = "Página %d de %d"

// Banner is the text painted inside the header band of every page.
type Banner struct {
	Brand string
	Title string
	Lines []string
}

// Footer is the text stamped in the footer band once layout is complete.
type Footer struct {
	Disclaimer string
	// PageLabel is a format receiving the page number and the page count.
	PageLabel string
}

// Label renders the "page i of n" string.
func (f Footer) Label(i, n int) string {
	format := f.PageLabel
	if format == "" {
		format = DefaultPageLabel
	}
	return fmt.Sprintf(format, i, n)
}

// Compositor paints the header band during layout and stamps footers afterwards.
type Compositor struct {
	cfg    Config
	banner Banner
	footer Footer
}

func NewCompositor(cfg Config, banner Banner, footer Footer) *Compositor {
	return &Compositor{cfg: cfg, banner: banner, footer: footer}
}

// DrawHeader paints the brand band at the top of p.
func (c *Compositor) DrawHeader(p *Page) {
	geo := c.cfg.Geometry
	pal := c.cfg.Palette
	p.add(Op{Kind: OpRect, Tag: "header.band", X: 0, Y: 0, W: geo.Width, H: geo.HeaderHeight, Color: pal.Brand, Filled: true})
	width := geo.UsableWidth()
	if c.banner.Brand != "" {
		p.add(Op{Kind: OpText, Tag: "header.brand", X: geo.Margin, Y: 28, W: width, Text: c.banner.Brand,
			Align: AlignCenter, FontSize: 20, Bold: true, Color: pal.OnBrand})
	}
	if c.banner.Title != "" {
		p.add(Op{Kind: OpText, Tag: "header.title", X: geo.Margin, Y: 55, W: width, Text: c.banner.Title,
			Align: AlignCenter, FontSize: 16, Bold: true, Color: pal.OnBrand})
	}
	y := 78.0
	for i, line := range c.banner.Lines {
		if y+9 > geo.HeaderHeight {
			break
		}
		p.add(Op{Kind: OpText, Tag: "header.line", Index: i, X: geo.Margin, Y: y, W: width, Text: line,
			Align: AlignCenter, FontSize: 9, Color: pal.OnBrand})
		y += 11
	}
}

// Finalize disables the header callback and stamps every page once with the
// footer rule, the disclaimer and the page label. It never moves the cursor
// and never touches content ops. It returns the number of pages stamped.
func (c *Compositor) Finalize(f *Flow) int {
	f.SetHeader(nil)
	geo := c.cfg.Geometry
	pal := c.cfg.Palette
	usable := geo.UsableWidth()
	y := geo.Height - 28
	half := usable/2 - 6
	pages := f.Pages()
	total := len(pages)
	for i, p := range pages {
		p.stamp(Op{Kind: OpLine, Tag: "footer.rule", X: geo.Margin, Y: y - 10, X2: geo.Margin + usable, Y2: y - 10,
			Stroke: pal.Line, LineWidth: 1, Stroked: true})
		if c.footer.Disclaimer != "" {
			p.stamp(Op{Kind: OpText, Tag: "footer.disclaimer", Index: i, X: geo.Margin, Y: y, W: half,
				Text: c.footer.Disclaimer, Align: AlignLeft, FontSize: 8, Color: pal.Faint})
		}
		p.stamp(Op{Kind: OpText, Tag: "footer.page", Index: i, X: geo.Margin + usable/2 + 6, Y: y, W: half,
			Text: c.footer.Label(i+1, total), Align: AlignRight, FontSize: 8, Color: pal.Faint})
	}
	return total
}
