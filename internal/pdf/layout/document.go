// Package layout lays report blocks out onto fixed-size pages.
//
// A Document is built in two passes. The content pass appends blocks
// (titles, paragraphs, KPI grids, tables and charts) through a Flow that
// breaks pages and paints the header band on each new page. Finalize then
// walks the finished page list once to stamp footers with "page i of N".
// The resulting display list is replayed onto a Surface to produce bytes.
package layout

import (
	"fmt"
	"io"
)

// Surface is a drawing backend able to replay a page display list.
type Surface interface {
	AddPage()
	Draw(op Op)
	Output(w io.Writer) error
}

// Document is a single report under construction. It is not safe for
// concurrent use; create one per generation.
type Document struct {
	cfg       Config
	flow      *Flow
	comp      *Compositor
	finalized bool
}

// New validates cfg and opens the first page with the header painted.
func New(cfg Config, banner Banner, footer Footer) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := NewCompositor(cfg, banner, footer)
	flow := NewFlow(cfg.Geometry)
	flow.SetHeader(comp.DrawHeader)
	flow.Start()
	return &Document{cfg: cfg, flow: flow, comp: comp}, nil
}

// Config returns the configuration the document was built with.
func (d *Document) Config() Config {
	return d.cfg
}

// Flow exposes the underlying page flow.
func (d *Document) Flow() *Flow {
	return d.flow
}

// Pages returns the laid out pages.
func (d *Document) Pages() []*Page {
	return d.flow.Pages()
}

// PageCount returns the number of pages so far.
func (d *Document) PageCount() int {
	return len(d.flow.pages)
}

// Finalized reports whether the footer pass ran.
func (d *Document) Finalized() bool {
	return d.finalized
}

// Finalize runs the footer pass. It may run only once.
func (d *Document) Finalize() error {
	if d.finalized {
		return ErrFinalized
	}
	d.comp.Finalize(d.flow)
	d.finalized = true
	return nil
}

// Render replays every page onto s and writes the output to w.
func (d *Document) Render(s Surface, w io.Writer) error {
	if !d.finalized {
		return ErrNotFinalized
	}
	for _, p := range d.flow.pages {
		s.AddPage()
		for _, op := range p.Ops() {
			s.Draw(op)
		}
	}
	if err := s.Output(w); err != nil {
		return fmt.Errorf("layout: render output: %w", err)
	}
	return nil
}

func (d *Document) writable() error {
	if d.finalized {
		return ErrFinalized
	}
	return nil
}

func (d *Document) text(tag string, index int, x, y, w float64, s string, size float64, bold bool, c Color, align Align) {
	d.flow.Draw(Op{Kind: OpText, Tag: tag, Index: index, X: x, Y: y, W: w, Text: s,
		FontSize: size, Bold: bold, Color: c, Align: align})
}

func (d *Document) line(tag string, x1, y1, x2, y2 float64, c Color, width float64) {
	d.flow.Draw(Op{Kind: OpLine, Tag: tag, X: x1, Y: y1, X2: x2, Y2: y2, Stroke: c, LineWidth: width, Stroked: true})
}
