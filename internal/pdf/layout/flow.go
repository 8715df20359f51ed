package layout

import "fmt"

// epsilon absorbs float drift when comparing accumulated heights.
const epsilon = 1e-6

// Flow owns the page list and the vertical write cursor.
type Flow struct {
	geo    Geometry
	header func(*Page)
	pages  []*Page
	y      float64
}

// NewFlow creates an empty flow. No page exists until Start or the first Reserve.
func NewFlow(geo Geometry) *Flow {
	return &Flow{geo: geo, y: geo.ContentTop()}
}

// SetHeader installs the callback invoked on every new page. Nil disables it.
func (f *Flow) SetHeader(fn func(*Page)) {
	f.header = fn
}

// Geometry returns the page geometry.
func (f *Flow) Geometry() Geometry {
	return f.geo
}

// Start opens the first page if none exists.
func (f *Flow) Start() {
	if len(f.pages) == 0 {
		f.newPage()
	}
}

// Break unconditionally opens a new page.
func (f *Flow) Break() {
	f.newPage()
}

func (f *Flow) newPage() {
	p := &Page{Number: len(f.pages) + 1}
	f.pages = append(f.pages, p)
	f.y = f.geo.ContentTop()
	if f.header != nil {
		f.header(p)
	}
}

// Fits reports whether h fits below the cursor on the current page.
func (f *Flow) Fits(h float64) bool {
	return len(f.pages) > 0 && f.y+h <= f.geo.ContentBottom()+epsilon
}

// Reserve makes sure h points are available below the cursor, breaking to a
// new page when they are not. It reports whether a break happened. Heights
// larger than an empty page fail with ErrBlockTooTall.
func (f *Flow) Reserve(h float64) (bool, error) {
	if h > f.geo.UsableHeight()+epsilon {
		return false, fmt.Errorf("%w: need %.2f, page holds %.2f", ErrBlockTooTall, h, f.geo.UsableHeight())
	}
	if len(f.pages) == 0 {
		f.newPage()
		return false, nil
	}
	if f.Fits(h) {
		return false, nil
	}
	f.newPage()
	return true, nil
}

// Advance moves the cursor down, never past the content bottom.
func (f *Flow) Advance(h float64) {
	f.y += h
	if bottom := f.geo.ContentBottom(); f.y > bottom {
		f.y = bottom
	}
}

// Y is the current cursor position.
func (f *Flow) Y() float64 {
	return f.y
}

// Remaining is the space left below the cursor on the current page.
func (f *Flow) Remaining() float64 {
	return f.geo.ContentBottom() - f.y
}

// Page returns the open page, or nil before Start.
func (f *Flow) Page() *Page {
	if len(f.pages) == 0 {
		return nil
	}
	return f.pages[len(f.pages)-1]
}

// Pages returns the pages in document order.
func (f *Flow) Pages() []*Page {
	out := make([]*Page, len(f.pages))
	copy(out, f.pages)
	return out
}

// Draw appends op to the open page.
func (f *Flow) Draw(op Op) {
	f.Start()
	f.Page().add(op)
}
