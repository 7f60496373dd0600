package pdfdoc

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/examcancel/internal/exam"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page is one page of a Document.
type Page struct {
	doc     *Document
	num     int
	box     *types.Rectangle
	spans   []exam.TextSpan
	loaded  bool
	wrapped bool
}

var _ exam.Page = (*Page)(nil)

func (p *Page) Number() int { return p.num }

func (p *Page) Size() (float64, float64) { return p.box.Width(), p.box.Height() }

// Spans returns the text of the page as it was when the document was opened.
func (p *Page) Spans() []exam.TextSpan {
	if p.doc.closed {
		return nil
	}
	if !p.loaded {
		p.spans = groupGlyphs(p.doc.extract(p.num), p.box.LL.X, p.box.UR.Y)
		p.loaded = true
	}
	return p.spans
}

// Whiteout paints rects with an opaque fill on top of the existing content.
// The text underneath stays in the content stream.
func (p *Page) Whiteout(fill exam.Color, rects ...exam.Rect) error {
	if p.doc.closed {
		return ErrClosed
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "q %.3f %.3f %.3f rg\n", fill.R, fill.G, fill.B)
	n := 0
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		x := r.X0 + p.box.LL.X
		y := p.box.UR.Y - r.Y1
		fmt.Fprintf(&sb, "%.2f %.2f %.2f %.2f re\n", x, y, r.Width(), r.Height())
		n++
	}
	if n == 0 {
		return nil
	}
	sb.WriteString("f\nQ\n")
	return p.appendContent([]byte(sb.String()))
}

// InsertText stamps each op onto the page.
func (p *Page) InsertText(ops ...exam.TextOp) error {
	if p.doc.closed {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}
	_, height := p.Size()
	wms := make([]*model.Watermark, 0, len(ops))
	for _, op := range ops {
		points := int(math.Round(op.Size))
		if points < 1 {
			points = 1
		}
		dx := op.X
		dy := height - op.Y - stampBaseline(op.Font, points)
		desc := fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, fillcolor:%s, opacity:1",
			op.Font, points, dx, dy, hexColor(op.Color))
		wm, err := api.TextWatermark(op.Text, desc, true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("text stamp %q: %w", op.Text, err)
		}
		wms = append(wms, wm)
	}
	if err := pdfcpu.AddWatermarksSliceMap(p.doc.ctx, map[int][]*model.Watermark{p.num: wms}); err != nil {
		return fmt.Errorf("apply stamps: %w", err)
	}
	return nil
}

// stampBaseline is the height of the baseline above the bottom of a text
// stamp. pdfcpu sets a single line at the rounded-up font descent.
func stampBaseline(fontName string, points int) float64 {
	return math.Ceil(font.Descent(fontName, points))
}

func hexColor(c exam.Color) string {
	clamp := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(c.R), clamp(c.G), clamp(c.B))
}

// appendContent adds a content stream to the end of the page. The first call
// wraps the existing content in q/Q so the graphics state is reset.
func (p *Page) appendContent(buf []byte) error {
	ctx := p.doc.ctx
	pd, _, _, err := ctx.PageDict(p.num, false)
	if err != nil {
		return fmt.Errorf("page %d dict: %w", p.num, err)
	}
	if pd == nil {
		return fmt.Errorf("page %d dict missing", p.num)
	}

	refs, err := p.contentRefs(pd)
	if err != nil {
		return err
	}

	if !p.wrapped {
		open, err := p.newStream([]byte("q\n"))
		if err != nil {
			return err
		}
		closeRef, err := p.newStream([]byte("Q\n"))
		if err != nil {
			return err
		}
		refs = append(types.Array{*open}, refs...)
		refs = append(refs, *closeRef)
		p.wrapped = true
	}

	ref, err := p.newStream(buf)
	if err != nil {
		return err
	}
	pd["Contents"] = append(refs, *ref)
	return nil
}

func (p *Page) contentRefs(pd types.Dict) (types.Array, error) {
	obj, found := pd.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	switch o := obj.(type) {
	case types.IndirectRef:
		v, err := p.doc.ctx.Dereference(o)
		if err != nil {
			return nil, fmt.Errorf("page %d contents: %w", p.num, err)
		}
		if arr, ok := v.(types.Array); ok {
			return append(types.Array(nil), arr...), nil
		}
		return types.Array{o}, nil
	case types.Array:
		return append(types.Array(nil), o...), nil
	default:
		return nil, fmt.Errorf("page %d: unexpected contents %T", p.num, obj)
	}
}

func (p *Page) newStream(buf []byte) (*types.IndirectRef, error) {
	ctx := p.doc.ctx
	sd, err := ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("new content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encode content stream: %w", err)
	}
	ref, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("register content stream: %w", err)
	}
	return ref, nil
}
