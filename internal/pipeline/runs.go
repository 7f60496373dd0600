package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/examcancel/internal/exam"
)

// RunStatus represents the state of a cancellation run.
type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// Run tracks a single processed document.
type Run struct {
	mu sync.Mutex

	ID          string
	Filename    string
	ContentHash string

	Status    RunStatus
	Cancelled []int
	Pages     []exam.PageReport
	Marker    *exam.MarkerReport
	Error     string

	InputBytes  int
	OutputBytes int

	CreatedAt time.Time
	UpdatedAt time.Time
	Duration  time.Duration
}

// NewRun starts a run for an uploaded document.
func NewRun(id, filename string, data []byte, set exam.CancellationSet) *Run {
	now := time.Now()
	return &Run{
		ID:          id,
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		Status:      StatusProcessing,
		Cancelled:   set.Sorted(),
		InputBytes:  len(data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Complete records the outcome of a successful run.
func (r *Run) Complete(pages []exam.PageReport, marker exam.MarkerReport, outputBytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusCompleted
	r.Pages = pages
	r.Marker = &marker
	r.OutputBytes = outputBytes
	r.finishLocked()
}

// Fail records the error that stopped the run. Page reports gathered before
// the failure are kept.
func (r *Run) Fail(err error, pages []exam.PageReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFailed
	r.Error = err.Error()
	if pages != nil {
		r.Pages = pages
	}
	r.finishLocked()
}

func (r *Run) finishLocked() {
	r.UpdatedAt = time.Now()
	r.Duration = r.UpdatedAt.Sub(r.CreatedAt)
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string             `json:"run_id"`
	Filename    string             `json:"filename"`
	ContentHash string             `json:"content_hash"`
	Status      RunStatus          `json:"status"`
	Cancelled   []int              `json:"cancelled"`
	Pages       []exam.PageReport  `json:"pages"`
	Marker      *exam.MarkerReport `json:"marker,omitempty"`
	Error       string             `json:"error,omitempty"`
	InputBytes  int                `json:"input_bytes"`
	OutputBytes int                `json:"output_bytes"`
	CreatedAt   time.Time          `json:"created_at"`
	DurationMs  int64              `json:"duration_ms"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancelled := r.Cancelled
	if cancelled == nil {
		cancelled = []int{}
	}
	pages := append([]exam.PageReport{}, r.Pages...)
	var marker *exam.MarkerReport
	if r.Marker != nil {
		m := *r.Marker
		marker = &m
	}
	return RunSnapshot{
		ID:          r.ID,
		Filename:    r.Filename,
		ContentHash: r.ContentHash,
		Status:      r.Status,
		Cancelled:   append([]int{}, cancelled...),
		Pages:       pages,
		Marker:      marker,
		Error:       r.Error,
		InputBytes:  r.InputBytes,
		OutputBytes: r.OutputBytes,
		CreatedAt:   r.CreatedAt,
		DurationMs:  r.Duration.Milliseconds(),
	}
}

func (r *Run) updatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes runs not updated within the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.updatedAt()) > s.ttl {
			delete(s.runs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
