package exam

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MarkerOutcome tags what the marker did with the document.
type MarkerOutcome string

const (
	MarkerApplied          MarkerOutcome = "marked"
	MarkerSkippedEmptySet  MarkerOutcome = "skipped_empty_set"
	MarkerSkippedNoKeyPage MarkerOutcome = "skipped_no_key_page"
	MarkerSkippedNoLetters MarkerOutcome = "skipped_no_letters"
	MarkerSkippedOutOfRow  MarkerOutcome = "skipped_out_of_row"
)

// MarkerReport describes the marker's work on a document.
type MarkerReport struct {
	Outcome    MarkerOutcome `json:"outcome"`
	Page       int           `json:"page,omitempty"`
	RowSize    int           `json:"row_size,omitempty"`
	Marked     []int         `json:"marked,omitempty"`
	OutOfRange []int         `json:"out_of_range,omitempty"`
}

// LetterSpan is a single answer letter on the answer-key page.
type LetterSpan struct {
	Letter rune
	BBox   Rect
	Size   float64
}

// Marker replaces the answer letters of cancelled questions with a marker
// glyph.
type Marker struct {
	params  Params
	heading string
	letters string
	glyph   string
	font    string
}

// NewMarker returns a marker drawing glyph in the given font.
func NewMarker(params Params, s Strings, font string) *Marker {
	return &Marker{
		params:  params,
		heading: foldText(s.Heading),
		letters: s.Alphabet,
		glyph:   s.Marker,
		font:    font,
	}
}

// foldText prepares text for a heading comparison: NFC, Turkish lower case,
// whitespace removed. A new Caser is built per call as Casers are stateful.
func foldText(s string) string {
	lower := cases.Lower(language.Turkish).String(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, lower)
}

// HasHeading reports whether the spans contain the answer-key heading.
func (m *Marker) HasHeading(spans []TextSpan) bool {
	if m.heading == "" {
		return false
	}
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return strings.Contains(foldText(sb.String()), m.heading)
}

// FindKeyPage returns the first page carrying the answer-key heading, or nil.
func (m *Marker) FindKeyPage(doc Document) (Page, error) {
	for n := 1; n <= doc.PageCount(); n++ {
		p, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("open page %d: %w", n, err)
		}
		if m.HasHeading(p.Spans()) {
			return p, nil
		}
	}
	return nil, nil
}

// CollectLetters returns the single-letter spans of a page.
func (m *Marker) CollectLetters(spans []TextSpan) []LetterSpan {
	var out []LetterSpan
	for _, s := range spans {
		r, ok := AnswerLetter(s, m.letters)
		if !ok {
			continue
		}
		size := s.Size
		if size <= 0 {
			size = defaultBodySize
		}
		out = append(out, LetterSpan{Letter: r, BBox: s.BBox, Size: size})
	}
	return out
}

// SelectAnswerRow buckets letters by their top edge rounded to decimals and
// returns the most populated bucket sorted left to right. Equal buckets are
// resolved in favour of the topmost one.
func SelectAnswerRow(letters []LetterSpan, decimals int) []LetterSpan {
	if len(letters) == 0 {
		return nil
	}
	scale := math.Pow(10, float64(decimals))
	buckets := make(map[int64][]LetterSpan)
	for _, l := range letters {
		key := int64(math.Round(l.BBox.Y0 * scale))
		buckets[key] = append(buckets[key], l)
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	best := keys[0]
	for _, k := range keys[1:] {
		if len(buckets[k]) > len(buckets[best]) {
			best = k
		}
	}

	row := append([]LetterSpan(nil), buckets[best]...)
	sort.SliceStable(row, func(i, j int) bool { return row[i].BBox.X0 < row[j].BBox.X0 })
	return row
}

// Apply marks the cancelled answers on the answer-key page. The letter at
// row index q-1 is taken to be the answer of question q.
func (m *Marker) Apply(doc Document, set CancellationSet) (MarkerReport, error) {
	if set.Len() == 0 {
		return MarkerReport{Outcome: MarkerSkippedEmptySet}, nil
	}
	page, err := m.FindKeyPage(doc)
	if err != nil {
		return MarkerReport{}, err
	}
	if page == nil {
		return MarkerReport{Outcome: MarkerSkippedNoKeyPage}, nil
	}

	rep := MarkerReport{Page: page.Number()}
	row := SelectAnswerRow(m.CollectLetters(page.Spans()), m.params.RowDecimals)
	rep.RowSize = len(row)
	if len(row) == 0 {
		rep.Outcome = MarkerSkippedNoLetters
		return rep, nil
	}

	for _, q := range set.Sorted() {
		idx := q - 1
		if idx < 0 || idx >= len(row) {
			rep.OutOfRange = append(rep.OutOfRange, q)
			continue
		}
		l := row[idx]
		if err := page.Whiteout(White, l.BBox.Expand(m.params.LetterPad)); err != nil {
			return rep, fmt.Errorf("blank answer %d: %w", q, err)
		}
		op := TextOp{
			X:     l.BBox.X0,
			Y:     l.BBox.Y1 - m.params.MarkerLift,
			Text:  m.glyph,
			Font:  m.font,
			Size:  l.Size,
			Color: Red,
		}
		if err := page.InsertText(op); err != nil {
			return rep, fmt.Errorf("mark answer %d: %w", q, err)
		}
		rep.Marked = append(rep.Marked, q)
	}
	rep.Outcome = MarkerApplied
	if len(rep.Marked) == 0 {
		rep.Outcome = MarkerSkippedOutOfRow
	}
	return rep, nil
}
