package exam

import (
	"reflect"
	"testing"
)

const (
	bodyFont   = "ArialMT"
	numberFont = "Arial-BoldMT"
)

// twoColumnPage is a 600x800 page: questions 1 and 2 on the left, 3 and 4 on
// the right. Question 4 starts exactly on the midpoint.
func twoColumnPage() *fakePage {
	return &fakePage{
		num:   1,
		width: 600, height: 800,
		spans: []TextSpan{
			span("2.", 50, 300, 12, 12, numberFont),
			span("Which of these is second?", 70, 300, 200, 10, bodyFont),
			span("1.", 50, 100, 12, 12, numberFont),
			span("Which of these is first?", 70, 100, 200, 10, bodyFont),
			span("A) one", 70, 120, 40, 10, bodyFont),
			span("4.", 300, 400, 12, 12, numberFont),
			span("3.", 310, 100, 12, 12, numberFont),
			span("Third question body", 330, 100, 200, 10, bodyFont),
		},
	}
}

func TestFindQuestions_MidpointGoesRight(t *testing.T) {
	qs := FindQuestions(twoColumnPage().spans, 300)
	cols := map[int]Column{}
	for _, q := range qs {
		cols[q.Number] = q.Column
	}
	want := map[int]Column{1: Left, 2: Left, 3: Right, 4: Right}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("expected columns %v, got %v", want, cols)
	}
}

func TestSplitColumns_SortsTopToBottom(t *testing.T) {
	left, right := SplitColumns(FindQuestions(twoColumnPage().spans, 300))
	if len(left) != 2 || left[0].Number != 1 || left[1].Number != 2 {
		t.Errorf("expected left column [1 2], got %+v", left)
	}
	if len(right) != 2 || right[0].Number != 3 || right[1].Number != 4 {
		t.Errorf("expected right column [3 4], got %+v", right)
	}
}

func TestEngine_ColumnBounds(t *testing.T) {
	e := NewEngine(DefaultParams(), "x", "F")
	if x0, x1 := e.ColumnBounds(Left, 600); x0 != 50 || x1 != 280 {
		t.Errorf("expected left [50 280], got [%v %v]", x0, x1)
	}
	if x0, x1 := e.ColumnBounds(Right, 600); x0 != 320 || x1 != 550 {
		t.Errorf("expected right [320 550], got [%v %v]", x0, x1)
	}
}

func TestEngine_PlanExtents(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := twoColumnPage()
	plan := e.PlanPage(1, p.width, p.height, p.spans, NewCancellationSet(1, 4))

	if plan.Report.Outcome != PageProcessed {
		t.Fatalf("expected outcome %q, got %q", PageProcessed, plan.Report.Outcome)
	}
	if plan.Report.Questions != 4 {
		t.Errorf("expected 4 questions, got %d", plan.Report.Questions)
	}
	if !reflect.DeepEqual(plan.Report.Cancelled, []int{1, 4}) {
		t.Errorf("expected cancelled [1 4], got %v", plan.Report.Cancelled)
	}

	wantRects := []Rect{
		// Not last in its column: stops 6 above question 2.
		{X0: 64, Y0: 98, X1: 280, Y1: 294},
		// Last in its column: runs to the footer reserve.
		{X0: 314, Y0: 398, X1: 550, Y1: 740},
	}
	if !reflect.DeepEqual(plan.Whiteouts, wantRects) {
		t.Errorf("expected whiteouts %+v, got %+v", wantRects, plan.Whiteouts)
	}

	if len(plan.Inserts) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(plan.Inserts))
	}
	first := plan.Inserts[0]
	want := TextOp{X: 69, Y: 109, Text: "cancelled", Font: "Bold", Size: 10, Color: Black}
	if first != want {
		t.Errorf("expected notice %+v, got %+v", want, first)
	}
}

func TestEngine_PreservesQuestionNumber(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := twoColumnPage()
	plan := e.PlanPage(1, p.width, p.height, p.spans, NewCancellationSet(3))
	if len(plan.Whiteouts) != 1 {
		t.Fatalf("expected 1 whiteout, got %d", len(plan.Whiteouts))
	}
	// Number "3." spans x 310..322.
	if plan.Whiteouts[0].X0 <= 322 {
		t.Errorf("whiteout must start right of the number, got x0=%v", plan.Whiteouts[0].X0)
	}
}

func TestEngine_ProcessPage_WhiteoutBeforeText(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := twoColumnPage()
	rep, err := e.ProcessPage(p, NewCancellationSet(1, 2, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Outcome != PageProcessed {
		t.Errorf("expected outcome %q, got %q", PageProcessed, rep.Outcome)
	}
	if len(p.ops) != 2 {
		t.Fatalf("expected 2 batched operations, got %d", len(p.ops))
	}
	if p.ops[0].kind != "whiteout" || p.ops[1].kind != "text" {
		t.Errorf("expected whiteout then text, got %q then %q", p.ops[0].kind, p.ops[1].kind)
	}
	if p.ops[0].fill != White {
		t.Errorf("expected white fill, got %+v", p.ops[0].fill)
	}
	if len(p.ops[0].rects) != 3 || len(p.ops[1].texts) != 3 {
		t.Errorf("expected 3 rects and 3 notices, got %d and %d", len(p.ops[0].rects), len(p.ops[1].texts))
	}
}

func TestEngine_ProcessPage_NoQuestions(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := &fakePage{num: 2, width: 600, height: 800, spans: []TextSpan{
		span("Cevap Anahtarı", 50, 50, 100, 14, numberFont),
	}}
	rep, err := e.ProcessPage(p, NewCancellationSet(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Outcome != PageSkippedNoMatch {
		t.Errorf("expected outcome %q, got %q", PageSkippedNoMatch, rep.Outcome)
	}
	if len(p.ops) != 0 {
		t.Errorf("expected no mutation, got %d operations", len(p.ops))
	}
}

func TestEngine_ProcessPage_NothingCancelled(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := twoColumnPage()
	rep, err := e.ProcessPage(p, NewCancellationSet(99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Outcome != PageSkippedNoCancelled {
		t.Errorf("expected outcome %q, got %q", PageSkippedNoCancelled, rep.Outcome)
	}
	if len(p.ops) != 0 {
		t.Errorf("expected no mutation, got %d operations", len(p.ops))
	}
}

func TestEngine_DegenerateAreaIsSkipped(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := &fakePage{num: 1, width: 600, height: 800, spans: []TextSpan{
		span("1.", 50, 100, 12, 12, numberFont),
		span("2.", 50, 103, 12, 12, numberFont),
	}}
	rep, err := e.ProcessPage(p, NewCancellationSet(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rep.Degenerate, []int{1}) {
		t.Errorf("expected degenerate [1], got %v", rep.Degenerate)
	}
	if len(p.ops) != 0 {
		t.Errorf("expected no mutation, got %d operations", len(p.ops))
	}
}

func TestEngine_ProcessPropagatesPageErrors(t *testing.T) {
	e := NewEngine(DefaultParams(), "cancelled", "Bold")
	p := twoColumnPage()
	p.failWhiteout = true
	doc := &fakeDoc{pages: []*fakePage{p}}
	reports, err := e.Process(doc, NewCancellationSet(1))
	if err == nil {
		t.Fatal("expected error from failing whiteout")
	}
	if len(reports) != 1 {
		t.Errorf("expected the failing page to be reported, got %d reports", len(reports))
	}
}
