package pipeline

import (
	"sort"
	"sync"
	"time"
)

// RunSample is what one completed run contributes to the stats window.
type RunSample struct {
	Duration  time.Duration
	Pages     int // pages in the document
	Cancelled int // questions blanked across all pages
	Marked    int // answers marked on the key page
}

type sample struct {
	at         time.Time
	durationMs int64
	pages      int
	cancelled  int
	marked     int
}

// StatsSnapshot aggregates the completed runs of the current window.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`

	Pages     int     `json:"pages"`
	Cancelled int     `json:"cancelled"`
	Marked    int     `json:"marked"`
	MsPerPage float64 `json:"ms_per_page"`
}

// RunStats keeps completed runs for a rolling window.
type RunStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewRunStats(window time.Duration) *RunStats {
	if window <= 0 {
		window = time.Hour
	}
	return &RunStats{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

func (s *RunStats) Record(rs RunSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		at:         now,
		durationMs: max(rs.Duration.Milliseconds(), 0),
		pages:      max(rs.Pages, 0),
		cancelled:  max(rs.Cancelled, 0),
		marked:     max(rs.Marked, 0),
	})
}

func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Count: len(s.samples)}
	durations := make([]int64, len(s.samples))
	var total int64
	for i, sm := range s.samples {
		durations[i] = sm.durationMs
		total += sm.durationMs
		snap.Pages += sm.pages
		snap.Cancelled += sm.cancelled
		snap.Marked += sm.marked
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	if snap.Pages > 0 {
		snap.MsPerPage = float64(total) / float64(snap.Pages)
	}
	return snap
}

// pruneLocked drops samples older than the window. Samples are appended in
// time order, so the expired ones form a prefix.
func (s *RunStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].at.Before(cutoff)
	})
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
