package exam

import "fmt"

type fakeOp struct {
	kind  string // "whiteout" or "text"
	rects []Rect
	fill  Color
	texts []TextOp
}

type fakePage struct {
	num           int
	width, height float64
	spans         []TextSpan
	ops           []fakeOp
	failWhiteout  bool
}

func (p *fakePage) Number() int              { return p.num }
func (p *fakePage) Size() (float64, float64) { return p.width, p.height }
func (p *fakePage) Spans() []TextSpan        { return p.spans }

func (p *fakePage) Whiteout(fill Color, rects ...Rect) error {
	if p.failWhiteout {
		return fmt.Errorf("whiteout refused")
	}
	p.ops = append(p.ops, fakeOp{kind: "whiteout", fill: fill, rects: rects})
	return nil
}

func (p *fakePage) InsertText(ops ...TextOp) error {
	p.ops = append(p.ops, fakeOp{kind: "text", texts: ops})
	return nil
}

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Page(n int) (Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return d.pages[n-1], nil
}

// span builds a span whose box starts at (x, y) and is h tall.
func span(text string, x, y, w, h float64, font string) TextSpan {
	return TextSpan{Text: text, BBox: Rect{X0: x, Y0: y, X1: x + w, Y1: y + h}, Size: h, Font: font}
}
