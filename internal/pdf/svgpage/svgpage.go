// Package svgpage renders a laid out page as inline SVG for browser previews.
package svgpage

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cineconnect/cineconnect/internal/pdf/layout"
)

// Opts customises the preview.
type Opts struct {
	Title       string
	Description string
	Font        string
	Background  string
}

// Render draws every op of p, content and footer, onto a page-sized viewBox.
func Render(p *layout.Page, geo layout.Geometry, opts Opts) (template.HTML, error) {
	if p == nil {
		return "", fmt.Errorf("svgpage: page required")
	}
	if geo.Width <= 0 || geo.Height <= 0 {
		return "", fmt.Errorf("svgpage: viewport too small")
	}
	font := fallback(opts.Font, "Helvetica, Arial, sans-serif")
	titleID := makeID(opts.Title, fmt.Sprintf("page-%d-title", p.Number))
	descID := makeID(opts.Title, fmt.Sprintf("page-%d-desc", p.Number))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %.2f %.2f\" role=\"img\" aria-labelledby=\"%s %s\">", geo.Width, geo.Height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, fmt.Sprintf("Página %d", p.Number)))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Vista previa del reporte"))))
	b.WriteString(fmt.Sprintf("<rect x=\"0\" y=\"0\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"></rect>", geo.Width, geo.Height, fallback(opts.Background, "#ffffff")))
	b.WriteString(fmt.Sprintf("<g font-family=\"%s\">", template.HTMLEscapeString(font)))
	for _, op := range p.Ops() {
		writeOp(&b, op)
	}
	b.WriteString("</g></svg>")
	return template.HTML(b.String()), nil
}

func writeOp(b *strings.Builder, op layout.Op) {
	switch op.Kind {
	case layout.OpRect, layout.OpRoundedRect:
		radius := ""
		if op.Kind == layout.OpRoundedRect && op.Radius > 0 {
			radius = fmt.Sprintf(" rx=\"%.2f\" ry=\"%.2f\"", op.Radius, op.Radius)
		}
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\"%s%s data-tag=\"%s\"></rect>",
			op.X, op.Y, op.W, op.H, radius, paint(op), template.HTMLEscapeString(op.Tag)))
	case layout.OpLine:
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"%.2f\" data-tag=\"%s\"></line>",
			op.X, op.Y, op.X2, op.Y2, op.Stroke, lineWidth(op), template.HTMLEscapeString(op.Tag)))
	case layout.OpText:
		x, anchor := op.X, "start"
		switch op.Align {
		case layout.AlignCenter:
			x, anchor = op.X+op.W/2, "middle"
		case layout.AlignRight:
			x, anchor = op.X+op.W, "end"
		}
		weight := "normal"
		if op.Bold {
			weight = "bold"
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"%.1f\" font-weight=\"%s\" text-anchor=\"%s\" data-tag=\"%s\">%s</text>",
			x, op.Y+op.FontSize*0.8, op.Color, op.FontSize, weight, anchor, template.HTMLEscapeString(op.Tag), template.HTMLEscapeString(op.Text)))
	}
}

func paint(op layout.Op) string {
	fill := "none"
	if op.Filled {
		fill = op.Color.String()
	}
	out := fmt.Sprintf(" fill=\"%s\"", fill)
	if op.Stroked {
		out += fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%.2f\"", op.Stroke, lineWidth(op))
	}
	return out
}

func lineWidth(op layout.Op) float64 {
	if op.LineWidth <= 0 {
		return 1
	}
	return op.LineWidth
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "report"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}
