package layout

import "errors"

var (
	// ErrBlockTooTall indicates an atomic block, table row or text line cannot fit on an empty page.
	ErrBlockTooTall = errors.New("layout: block taller than usable page height")
	// ErrTableTooWide indicates the declared column widths exceed the usable width.
	ErrTableTooWide = errors.New("layout: table wider than usable page width")
	// ErrChartTooDense indicates more bars than fit across the usable width.
	ErrChartTooDense = errors.New("layout: chart bars do not fit usable page width")
	// ErrInvalidTable flags a table without columns or with non-positive widths.
	ErrInvalidTable = errors.New("layout: invalid table columns")
	// ErrInvalidGeometry flags a page geometry without usable space.
	ErrInvalidGeometry = errors.New("layout: invalid page geometry")
	// ErrFinalized is returned when content is added after the footer pass.
	ErrFinalized = errors.New("layout: document already finalized")
	// ErrNotFinalized is returned when rendering before the footer pass.
	ErrNotFinalized = errors.New("layout: document not finalized")
)
