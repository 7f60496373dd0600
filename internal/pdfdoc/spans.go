package pdfdoc

import (
	"math"
	"strings"

	"github.com/dgallion1/examcancel/internal/exam"
	pdflib "github.com/ledongthuc/pdf"
)

// Glyph grouping thresholds, relative to the font size unless noted.
const (
	baselineTolerance = 0.5 // points
	sizeTolerance     = 0.01
	spanGapFactor     = 0.3
	wordGapFactor     = 0.1
	ascentRatio       = 0.8
	descentRatio      = 0.2
)

type run struct {
	text     strings.Builder
	font     string
	size     float64
	baseline float64
	start    float64
	end      float64
}

func newRun(g pdflib.Text) *run {
	r := &run{font: g.Font, size: g.FontSize, baseline: g.Y, start: g.X, end: g.X + g.W}
	r.text.WriteString(g.S)
	return r
}

func (r *run) continues(g pdflib.Text) bool {
	if g.Font != r.font {
		return false
	}
	if math.Abs(g.FontSize-r.size) > sizeTolerance || math.Abs(g.Y-r.baseline) > baselineTolerance {
		return false
	}
	gap := g.X - r.end
	return gap <= spanGapFactor*r.size && gap >= -r.size
}

func (r *run) add(g pdflib.Text) {
	r.text.WriteString(g.S)
	if end := g.X + g.W; end > r.end {
		r.end = end
	}
}

// span converts the run into page space: origin at the top-left of the
// visible box (llx, ury), y growing downward.
func (r *run) span(llx, ury float64) exam.TextSpan {
	return exam.TextSpan{
		Text: r.text.String(),
		Font: r.font,
		Size: r.size,
		BBox: exam.Rect{
			X0: r.start - llx,
			Y0: ury - (r.baseline + ascentRatio*r.size),
			X1: r.end - llx,
			Y1: ury - (r.baseline - descentRatio*r.size),
		},
	}
}

// groupGlyphs merges positioned glyphs into spans. A span ends on a change of
// font, size or baseline, or when the next glyph starts too far away.
// Whitespace glyphs, or a small gap, become a single space inside a span.
func groupGlyphs(glyphs []pdflib.Text, llx, ury float64) []exam.TextSpan {
	var (
		out   []exam.TextSpan
		cur   *run
		space bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		if s := cur.span(llx, ury); strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			if cur != nil {
				space = true
				if end := g.X + g.W; end > cur.end && math.Abs(g.Y-cur.baseline) <= baselineTolerance {
					cur.end = end
				}
			}
			continue
		}
		if cur != nil && cur.continues(g) {
			if space || g.X-cur.end > wordGapFactor*cur.size {
				cur.text.WriteByte(' ')
			}
			cur.add(g)
		} else {
			flush()
			cur = newRun(g)
		}
		space = false
	}
	flush()
	return out
}
