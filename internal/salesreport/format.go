package salesreport

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with locale digit grouping. The zero value
// formats in English without a currency symbol.
type Formatter struct {
	tag      language.Tag
	currency string
}

// NewFormatter builds a formatter for tag, prefixing money with currency.
func NewFormatter(tag language.Tag, currency string) Formatter {
	return Formatter{tag: tag, currency: currency}
}

// ParseLocale resolves a BCP 47 tag, falling back to Guatemalan Spanish.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.MustParse("es-GT")
	}
	return tag
}

// p returns a fresh printer; printers are not shared between goroutines.
func (f Formatter) p() *message.Printer {
	if f.tag == language.Und {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(f.tag)
}

// Money formats v with two decimals, e.g. "Q60,000.00".
func (f Formatter) Money(v float64) string {
	return f.currency + f.p().Sprintf("%.2f", v)
}

// Int formats v with grouping, e.g. "1,200".
func (f Formatter) Int(v int64) string {
	return f.p().Sprintf("%d", v)
}

// Share formats a percentage with one decimal and no grouping.
func Share(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Plain prints v with the shortest exact representation.
func Plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
