// Package fpdfsurface replays layout display lists onto go-pdf/fpdf.
package fpdfsurface

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/cineconnect/cineconnect/internal/pdf/layout"
)

// Info is the PDF document information dictionary.
type Info struct {
	Title    string
	Subject  string
	Author   string
	Keywords string
	Creator  string
	// Created pins the creation and modification dates so identical input
	// produces identical bytes. Zero means the Unix epoch.
	Created time.Time
}

// Surface is a layout.Surface writing PDF through fpdf. Units are points and
// automatic page breaks are disabled: pagination belongs to the layout flow.
type Surface struct {
	pdf  *fpdf.Fpdf
	geo  layout.Geometry
	font string
	tr   func(string) string
}

// New prepares an fpdf document sized to geo.
func New(geo layout.Geometry, font string, info Info) *Surface {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geo.Width, Ht: geo.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	created := info.Created
	if created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(info.Title, true)
	pdf.SetSubject(info.Subject, true)
	pdf.SetAuthor(info.Author, true)
	pdf.SetKeywords(info.Keywords, true)
	pdf.SetCreator(info.Creator, true)
	if font == "" {
		font = "Helvetica"
	}
	return &Surface{pdf: pdf, geo: geo, font: font, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// AddPage starts a new PDF page.
func (s *Surface) AddPage() {
	s.pdf.AddPage()
}

// Draw paints one op on the current page.
func (s *Surface) Draw(op layout.Op) {
	switch op.Kind {
	case layout.OpText:
		s.text(op)
	case layout.OpRect:
		s.paint(op)
		s.pdf.Rect(op.X, op.Y, op.W, op.H, style(op))
	case layout.OpRoundedRect:
		s.paint(op)
		s.pdf.RoundedRect(op.X, op.Y, op.W, op.H, op.Radius, "1234", style(op))
	case layout.OpLine:
		s.paint(op)
		s.pdf.Line(op.X, op.Y, op.X2, op.Y2)
	}
}

func (s *Surface) paint(op layout.Op) {
	if op.Filled {
		s.pdf.SetFillColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	}
	if op.Stroked {
		s.pdf.SetDrawColor(int(op.Stroke.R), int(op.Stroke.G), int(op.Stroke.B))
		width := op.LineWidth
		if width <= 0 {
			width = 1
		}
		s.pdf.SetLineWidth(width)
	}
}

func (s *Surface) text(op layout.Op) {
	styleStr := ""
	if op.Bold {
		styleStr = "B"
	}
	s.pdf.SetFont(s.font, styleStr, op.FontSize)
	s.pdf.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
	s.pdf.SetXY(op.X, op.Y)
	s.pdf.CellFormat(op.W, op.FontSize, s.tr(op.Text), "", 0, align(op.Align), false, 0, "")
}

// Output writes the finished PDF, surfacing any error fpdf accumulated.
func (s *Surface) Output(w io.Writer) error {
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("fpdfsurface: %w", err)
	}
	return nil
}

// PageCount returns the pages added so far.
func (s *Surface) PageCount() int {
	return s.pdf.PageCount()
}

func style(op layout.Op) string {
	switch {
	case op.Filled && op.Stroked:
		return "FD"
	case op.Filled:
		return "F"
	default:
		return "D"
	}
}

func align(a layout.Align) string {
	switch a {
	case layout.AlignCenter:
		return "CM"
	case layout.AlignRight:
		return "RM"
	default:
		return "LM"
	}
}

// Measurer measures strings with the fpdf core font metrics.
type Measurer struct {
	mu   sync.Mutex
	pdf  *fpdf.Fpdf
	font string
	tr   func(string) string
}

// NewMeasurer returns a layout.Measurer for the given core font family.
func NewMeasurer(font string) *Measurer {
	if font == "" {
		font = "Helvetica"
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	return &Measurer{pdf: pdf, font: font, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// TextWidth implements layout.Measurer.
func (m *Measurer) TextWidth(text string, size float64, bold bool) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	styleStr := ""
	if bold {
		styleStr = "B"
	}
	m.pdf.SetFont(m.font, styleStr, size)
	return m.pdf.GetStringWidth(m.tr(text))
}
