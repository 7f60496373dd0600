package pipeline

import (
	"testing"
	"time"
)

// fakeClock lets tests move the stats window without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStats(window time.Duration) (*RunStats, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	s := NewRunStats(window)
	s.now = clock.now
	return s, clock
}

func TestRunStatsSnapshotPercentiles(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	for _, ms := range []int64{300, 100, 500, 200, 400} {
		stats.Record(RunSample{Duration: time.Duration(ms) * time.Millisecond, Pages: 2})
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.Pages != 10 || snap.MsPerPage != 150 {
		t.Fatalf("expected 10 pages at 150ms/page, got %d at %f", snap.Pages, snap.MsPerPage)
	}
}

func TestRunStatsCountsWork(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	stats.Record(RunSample{Duration: time.Second, Pages: 3, Cancelled: 2, Marked: 2})
	stats.Record(RunSample{Duration: time.Second, Pages: 1, Cancelled: 1})

	snap := stats.Snapshot()
	if snap.Cancelled != 3 || snap.Marked != 2 || snap.Pages != 4 {
		t.Fatalf("expected cancelled=3 marked=2 pages=4, got %+v", snap)
	}
}

func TestRunStatsPrunesExpiredSamples(t *testing.T) {
	stats, clock := newTestStats(10 * time.Minute)
	stats.Record(RunSample{Duration: 100 * time.Millisecond, Pages: 1})
	clock.advance(11 * time.Minute)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(RunSample{Duration: 200 * time.Millisecond, Pages: 1})
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestRunStatsRecordClampsNegatives(t *testing.T) {
	stats, _ := newTestStats(time.Hour)
	stats.Record(RunSample{Duration: -10 * time.Millisecond, Pages: -1})
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.Pages != 0 || snap.MsPerPage != 0 {
		t.Fatalf("expected clamped sample, got %+v", snap)
	}
}

func TestRunStatsEmpty(t *testing.T) {
	if snap := NewRunStats(0).Snapshot(); snap != (StatsSnapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
