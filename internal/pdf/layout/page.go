package layout

// OpKind identifies a drawing primitive.
type OpKind int

const (
	OpText OpKind = iota + 1
	OpRect
	OpRoundedRect
	OpLine
)

func (k OpKind) String() string {
	switch k {
	case OpText:
		return "text"
	case OpRect:
		return "rect"
	case OpRoundedRect:
		return "rounded_rect"
	case OpLine:
		return "line"
	default:
		return "unknown"
	}
}

// Align is the horizontal alignment of text inside its box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Op is one display-list entry. Coordinates are in points from the top-left
// corner of the page. Lines run from (X, Y) to (X2, Y2); text sits in a box of
// width W whose top edge is Y.
type Op struct {
	Kind  OpKind
	Tag   string
	Index int

	X, Y   float64
	W, H   float64
	X2, Y2 float64
	Radius float64

	Text     string
	Align    Align
	FontSize float64
	Bold     bool

	// Color is the text or fill colour; Stroke the outline colour.
	Color     Color
	Stroke    Color
	LineWidth float64
	Filled    bool
	Stroked   bool
}

// Bottom returns the lowest y touched by the op.
func (o Op) Bottom() float64 {
	switch o.Kind {
	case OpLine:
		if o.Y2 > o.Y {
			return o.Y2
		}
		return o.Y
	case OpText:
		return o.Y + o.FontSize
	default:
		return o.Y + o.H
	}
}

// Page is one page of the document. Content ops are appended during layout
// and frozen once the page is left; footer ops are only written by the
// footer pass.
type Page struct {
	Number  int
	content []Op
	footer  []Op
}

func (p *Page) add(op Op) {
	p.content = append(p.content, op)
}

func (p *Page) stamp(op Op) {
	p.footer = append(p.footer, op)
}

// Content returns a copy of the ops drawn during layout.
func (p *Page) Content() []Op {
	out := make([]Op, len(p.content))
	copy(out, p.content)
	return out
}

// Footer returns a copy of the ops stamped by the footer pass.
func (p *Page) Footer() []Op {
	out := make([]Op, len(p.footer))
	copy(out, p.footer)
	return out
}

// Ops returns content followed by footer ops, in drawing order.
func (p *Page) Ops() []Op {
	out := make([]Op, 0, len(p.content)+len(p.footer))
	out = append(out, p.content...)
	return append(out, p.footer...)
}

// Find returns every op carrying tag, in drawing order.
func (p *Page) Find(tag string) []Op {
	var out []Op
	for _, op := range p.content {
		if op.Tag == tag {
			out = append(out, op)
		}
	}
	for _, op := range p.footer {
		if op.Tag == tag {
			out = append(out, op)
		}
	}
	return out
}

// Texts lists the text of every text op on the page.
func (p *Page) Texts() []string {
	var out []string
	for _, op := range p.Ops() {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}
