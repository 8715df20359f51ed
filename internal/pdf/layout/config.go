package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// Hex parses "#RRGGBB" (the leading hash is optional). Malformed input yields black.
func Hex(s string) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// String renders the colour as lower-case "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette groups every colour used by the renderers.
type Palette struct {
	Ink       Color
	Sub       Color
	Faint     Color
	Line      Color
	Brand     Color
	Light     Color
	Bar       Color
	OnBrand   Color
	TableHead Color
	ZebraEven Color
	ZebraOdd  Color
	TitleRule Color
	Gridline  Color
}

// DefaultPalette is the Cine Connect brand palette.
func DefaultPalette() Palette {
	return Palette{
		Ink:       Hex("#1A202C"),
		Sub:       Hex("#4A5568"),
		Faint:     Hex("#718096"),
		Line:      Hex("#E2E8F0"),
		Brand:     Hex("#1A365D"),
		Light:     Hex("#F7FAFC"),
		Bar:       Hex("#60A5FA"),
		OnBrand:   Hex("#FFFFFF"),
		TableHead: Hex("#F1F5F9"),
		ZebraEven: Hex("#FFFFFF"),
		ZebraOdd:  Hex("#FBFDFF"),
		TitleRule: Hex("#EDF2F7"),
		Gridline:  Hex("#EEF2F7"),
	}
}

// Geometry describes the fixed page canvas in points.
type Geometry struct {
	Width        float64
	Height       float64
	Margin       float64
	HeaderHeight float64
	FooterHeight float64
}

// UsableWidth is the page width minus both side margins.
func (g Geometry) UsableWidth() float64 {
	return g.Width - 2*g.Margin
}

// UsableHeight is the vertical space available to content on a single page.
func (g Geometry) UsableHeight() float64 {
	return g.Height - g.HeaderHeight - g.FooterHeight - 2*g.Margin
}

// ContentTop is where the cursor sits on a fresh page.
func (g Geometry) ContentTop() float64 {
	return g.HeaderHeight + g.Margin
}

// ContentBottom is the lowest y content may reach before the footer band.
func (g Geometry) ContentBottom() float64 {
	return g.Height - g.FooterHeight - g.Margin
}

// Validate rejects geometries that leave no room for content.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: page size %.2fx%.2f", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.Margin < 0 || g.HeaderHeight < 0 || g.FooterHeight < 0 {
		return fmt.Errorf("%w: negative margin or band", ErrInvalidGeometry)
	}
	if g.UsableWidth() <= 0 {
		return fmt.Errorf("%w: usable width %.2f", ErrInvalidGeometry, g.UsableWidth())
	}
	if g.UsableHeight() <= 0 {
		return fmt.Errorf("%w: usable height %.2f", ErrInvalidGeometry, g.UsableHeight())
	}
	return nil
}

// A4 in points.
var A4 = Geometry{Width: 595.28, Height: 841.89, Margin: 50, HeaderHeight: 100, FooterHeight: 40}

// Config is the immutable styling and sizing input of a Document. It is
// copied into every Document so concurrent generations never share state.
type Config struct {
	Geometry Geometry
	Palette  Palette
	Font     string
	// Measurer estimates string widths for wrapping. Nil falls back to an
	// average-glyph estimate.
	Measurer Measurer

	BodySize       float64
	SmallSize      float64
	TitleSize      float64
	ChartTitleSize float64
	LineGap        float64

	TitleBlockHeight float64

	KPIColumns   int
	KPIRowHeight float64
	KPIRowGap    float64
	KPIColumnGap float64
	KPIRadius    float64

	TableRowHeight float64
	TablePadding   float64
	TableGap       float64
	TableFontSize  float64

	ChartHeight      float64
	ChartLabelMargin float64
	ChartSteps       int
	ChartBarGap      float64
	ChartMaxBars     int
	ChartLabelRunes  int

	HBarRowHeight   float64
	HBarRowGap      float64
	HBarLabelWidth  float64
	HBarValueWidth  float64
	HBarTitleHeight float64
	HBarLabelRunes  int

	PairRowHeight   float64
	PairColumnGap   float64
	PairValueOffset float64
}

// DefaultConfig returns the A4 report layout.
func DefaultConfig() Config {
	return Config{
		Geometry:         A4,
		Palette:          DefaultPalette(),
		Font:             "Helvetica",
		BodySize:         10,
		SmallSize:        8,
		TitleSize:        14,
		ChartTitleSize:   11,
		LineGap:          2,
		TitleBlockHeight: 36,
		KPIColumns:       2,
		KPIRowHeight:     60,
		KPIRowGap:        10,
		KPIColumnGap:     16,
		KPIRadius:        10,
		TableRowHeight:   20,
		TablePadding:     8,
		TableGap:         10,
		TableFontSize:    9,
		ChartHeight:      150,
		ChartLabelMargin: 60,
		ChartSteps:       4,
		ChartBarGap:      8,
		ChartMaxBars:     14,
		ChartLabelRunes:  16,
		HBarRowHeight:    10,
		HBarRowGap:       8,
		HBarLabelWidth:   130,
		HBarValueWidth:   46,
		HBarTitleHeight:  40,
		HBarLabelRunes:   24,
		PairRowHeight:    18,
		PairColumnGap:    20,
		PairValueOffset:  170,
	}
}

// Validate checks the geometry and the sizes that would otherwise divide by zero.
func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if c.KPIColumns <= 0 {
		return fmt.Errorf("layout: kpi columns must be positive, got %d", c.KPIColumns)
	}
	if c.ChartSteps <= 0 {
		return fmt.Errorf("layout: chart steps must be positive, got %d", c.ChartSteps)
	}
	if c.ChartMaxBars > 0 {
		if _, err := c.BarWidth(c.ChartMaxBars); err != nil {
			return err
		}
	}
	if c.TableRowHeight <= 0 || c.PairRowHeight <= 0 || c.HBarRowHeight <= 0 {
		return fmt.Errorf("layout: row heights must be positive")
	}
	return nil
}

// BarWidth is the width of each of n vertical bars spread across the usable
// width with ChartBarGap between and around them.
func (c Config) BarWidth(n int) (float64, error) {
	width := c.Geometry.UsableWidth()
	gap := c.ChartBarGap
	w := (width - gap*float64(n+1)) / float64(n)
	if n <= 0 || w <= 0 {
		return 0, fmt.Errorf("%w: %d bars with %.2f gap across %.2f", ErrChartTooDense, n, gap, width)
	}
	return w, nil
}

func (c Config) measurer() Measurer {
	if c.Measurer == nil {
		return approxMeasurer{}
	}
	return c.Measurer
}
