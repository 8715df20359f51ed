package layout

import (
	"strings"
	"unicode/utf8"
)

// Measurer reports the rendered width of text in points.
type Measurer interface {
	TextWidth(text string, size float64, bold bool) float64
}

// approxMeasurer assumes an average Helvetica glyph width.
type approxMeasurer struct{}

func (approxMeasurer) TextWidth(text string, size float64, bold bool) float64 {
	factor := 0.5
	if bold {
		factor = 0.55
	}
	return float64(utf8.RuneCountInString(text)) * size * factor
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// wrap splits a single line into greedy word-wrapped lines no wider than
// width. Words wider than width are kept whole on their own line.
func wrap(m Measurer, text string, width, size float64, bold bool) []string {
	if width <= 0 || m.TextWidth(text, size, bold) <= width {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if m.TextWidth(candidate, size, bold) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}
