package exam

import (
	"fmt"
	"sort"
)

// Column is one half of a two-column page.
type Column int

const (
	Left Column = iota
	Right
)

func (c Column) String() string {
	if c == Left {
		return "left"
	}
	return "right"
}

// QuestionSpan is a "<n>." span that opens a question.
type QuestionSpan struct {
	Number int
	BBox   Rect
	Column Column
}

// PageOutcome tags what the engine did with a page.
type PageOutcome string

const (
	PageProcessed          PageOutcome = "processed"
	PageSkippedNoMatch     PageOutcome = "skipped_no_match"
	PageSkippedNoCancelled PageOutcome = "skipped_no_cancelled"
)

// PageReport describes the engine's work on one page.
type PageReport struct {
	Page      int         `json:"page"`
	Outcome   PageOutcome `json:"outcome"`
	Questions int         `json:"questions"`
	Cancelled []int       `json:"cancelled,omitempty"`
	// Degenerate lists cancelled questions whose area collapsed to nothing.
	Degenerate []int     `json:"degenerate,omitempty"`
	Fonts      FontStats `json:"fonts"`
}

// Engine blanks cancelled questions and writes the cancellation notice in
// their place.
type Engine struct {
	params Params
	notice string
	font   string
}

// NewEngine returns an engine writing notice in the given font.
func NewEngine(params Params, notice, font string) *Engine {
	return &Engine{params: params, notice: notice, font: font}
}

// FindQuestions collects the question-number spans of a page and assigns
// each to a column. A span starting exactly on mid belongs to Right.
func FindQuestions(spans []TextSpan, mid float64) []QuestionSpan {
	var qs []QuestionSpan
	for _, s := range spans {
		n, ok := QuestionNumber(s)
		if !ok {
			continue
		}
		col := Right
		if s.BBox.X0 < mid {
			col = Left
		}
		qs = append(qs, QuestionSpan{Number: n, BBox: s.BBox, Column: col})
	}
	return qs
}

// SplitColumns partitions questions by column, each sorted top to bottom.
func SplitColumns(qs []QuestionSpan) (left, right []QuestionSpan) {
	for _, q := range qs {
		if q.Column == Left {
			left = append(left, q)
		} else {
			right = append(right, q)
		}
	}
	byTop := func(items []QuestionSpan) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].BBox.Y0 < items[j].BBox.Y0 })
	}
	byTop(left)
	byTop(right)
	return left, right
}

// ColumnBounds returns the horizontal extent of a column.
func (e *Engine) ColumnBounds(col Column, width float64) (x0, x1 float64) {
	mid := width / 2
	if col == Left {
		return e.params.Margin, mid - e.params.Gutter
	}
	return mid + e.params.Gutter, width - e.params.Margin
}

// Plan is the set of page mutations for the cancelled questions of a page.
type Plan struct {
	Whiteouts []Rect
	Inserts   []TextOp
	Report    PageReport
}

// PlanPage computes the whiteouts and notices for one page without touching
// it.
func (e *Engine) PlanPage(pageNum int, width, height float64, spans []TextSpan, set CancellationSet) Plan {
	stats := EstimateFontStats(spans)
	plan := Plan{Report: PageReport{Page: pageNum, Fonts: stats}}

	qs := FindQuestions(spans, width/2)
	plan.Report.Questions = len(qs)
	if len(qs) == 0 {
		plan.Report.Outcome = PageSkippedNoMatch
		return plan
	}

	left, right := SplitColumns(qs)
	for _, items := range [][]QuestionSpan{left, right} {
		if len(items) == 0 {
			continue
		}
		_, colRight := e.ColumnBounds(items[0].Column, width)

		for i, q := range items {
			if !set.Contains(q.Number) {
				continue
			}
			plan.Report.Cancelled = append(plan.Report.Cancelled, q.Number)

			bottom := height - e.params.FooterReserve
			if i < len(items)-1 {
				bottom = items[i+1].BBox.Y0 - e.params.NextPad
			}
			rect := Rect{
				X0: q.BBox.X1 + e.params.NumberGap,
				Y0: q.BBox.Y0 - e.params.TopPad,
				X1: colRight,
				Y1: bottom,
			}
			if rect.Empty() {
				plan.Report.Degenerate = append(plan.Report.Degenerate, q.Number)
				continue
			}

			plan.Whiteouts = append(plan.Whiteouts, rect)
			plan.Inserts = append(plan.Inserts, TextOp{
				X:     rect.X0 + e.params.NoticeIndent,
				Y:     q.BBox.Y0 + stats.Body*e.params.BaselineRatio,
				Text:  e.notice,
				Font:  e.font,
				Size:  stats.Body,
				Color: Black,
			})
		}
	}

	sort.Ints(plan.Report.Cancelled)
	if len(plan.Whiteouts) > 0 {
		plan.Report.Outcome = PageProcessed
	} else {
		plan.Report.Outcome = PageSkippedNoCancelled
	}
	return plan
}

// ProcessPage applies the plan of one page. All whiteouts are painted
// before any notice so the notices stay visible.
func (e *Engine) ProcessPage(p Page, set CancellationSet) (PageReport, error) {
	width, height := p.Size()
	plan := e.PlanPage(p.Number(), width, height, p.Spans(), set)
	if len(plan.Whiteouts) == 0 {
		return plan.Report, nil
	}
	if err := p.Whiteout(White, plan.Whiteouts...); err != nil {
		return plan.Report, fmt.Errorf("whiteout page %d: %w", p.Number(), err)
	}
	if err := p.InsertText(plan.Inserts...); err != nil {
		return plan.Report, fmt.Errorf("insert notice on page %d: %w", p.Number(), err)
	}
	return plan.Report, nil
}

// Process runs the engine over every page of doc in order.
func (e *Engine) Process(doc Document, set CancellationSet) ([]PageReport, error) {
	reports := make([]PageReport, 0, doc.PageCount())
	for n := 1; n <= doc.PageCount(); n++ {
		p, err := doc.Page(n)
		if err != nil {
			return reports, fmt.Errorf("open page %d: %w", n, err)
		}
		rep, err := e.ProcessPage(p, set)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}
