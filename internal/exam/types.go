package exam

// Rect is an axis-aligned box in page space. The origin is the top-left
// corner of the page and y grows downward.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Expand grows the rect by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X0: r.X0 - d, Y0: r.Y0 - d, X1: r.X1 + d, Y1: r.Y1 + d}
}

// TextSpan is a run of uniformly styled text reported by the layout engine.
type TextSpan struct {
	Text string
	BBox Rect
	Size float64
	Font string
}

// Color is an RGB triple with components in [0,1].
type Color struct {
	R, G, B float64
}

var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
	Red   = Color{1, 0, 0}
)

// TextOp places Text with its baseline starting at (X, Y).
type TextOp struct {
	X, Y  float64
	Text  string
	Font  string
	Size  float64
	Color Color
}

// Page is one mutable page of an open document.
type Page interface {
	Number() int
	Size() (width, height float64)
	// Spans returns the page's text as extracted before any mutation.
	Spans() []TextSpan
	// Whiteout paints the rects with an opaque fill.
	Whiteout(fill Color, rects ...Rect) error
	InsertText(ops ...TextOp) error
}

// Document is an open, mutable document. Pages are numbered from 1.
type Document interface {
	PageCount() int
	Page(n int) (Page, error)
}
