package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/examcancel/internal/config"
	"github.com/dgallion1/examcancel/internal/exam"
	"github.com/dgallion1/examcancel/internal/fonts"
	"github.com/dgallion1/examcancel/internal/pdfdoc"
)

// ErrUnavailable is returned when a document could not be admitted before
// its context ended.
var ErrUnavailable = errors.New("processor unavailable")

// Result is the output of one processed document.
type Result struct {
	PDF []byte
	Run RunSnapshot
}

// Processor runs the cancellation engine and the answer-key marker over
// uploaded documents. Each document is processed on the caller's goroutine;
// the processor only bounds how many run at once.
type Processor struct {
	runs   *RunStore
	stats  *RunStats
	engine *exam.Engine
	marker *exam.Marker
	fonts  fonts.Set
	log    *slog.Logger

	sem      chan struct{}
	inFlight atomic.Int64

	cleanupEvery time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewProcessor wires the engine and marker with the resolved fonts.
func NewProcessor(cfg config.Config, fs fonts.Set, log *slog.Logger) *Processor {
	return &Processor{
		runs:         NewRunStore(cfg.RunTTL),
		stats:        NewRunStats(cfg.StatsWindow),
		engine:       exam.NewEngine(cfg.Layout, cfg.Strings.Notice, fs.Bold.Name),
		marker:       exam.NewMarker(cfg.Layout, cfg.Strings, fs.Regular.Name),
		fonts:        fs,
		log:          log,
		sem:          make(chan struct{}, cfg.MaxConcurrentDocs),
		cleanupEvery: 5 * time.Minute,
	}
}

// Start launches the run store cleanup loop.
func (p *Processor) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				p.runs.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Process cancels the questions listed in raw and marks them on the answer
// key. The run is recorded whether or not it succeeds.
func (p *Processor) Process(ctx context.Context, filename string, data []byte, raw string) (*Result, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
	defer func() { <-p.sem }()

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	set := exam.ParseCancellations(raw)
	run := NewRun(NewRunID(), filename, data, set)
	p.runs.Put(run)
	log := p.log.With("run_id", run.ID, "filename", filename)
	log.Info("run started", "bytes", len(data), "cancelled", set.Sorted())

	out, pages, marker, err := p.process(data, set, log)
	if err != nil {
		run.Fail(err, pages)
		log.Error("run failed", "error", err)
		return &Result{Run: run.Snapshot()}, err
	}

	run.Complete(pages, marker, len(out))
	snap := run.Snapshot()
	p.stats.Record(RunSample{
		Duration:  time.Duration(snap.DurationMs) * time.Millisecond,
		Pages:     len(pages),
		Cancelled: countCancelled(pages),
		Marked:    len(marker.Marked),
	})
	log.Info("run completed",
		"pages", len(pages),
		"marker", marker.Outcome,
		"duration_ms", snap.DurationMs,
	)
	return &Result{PDF: out, Run: snap}, nil
}

func (p *Processor) process(data []byte, set exam.CancellationSet, log *slog.Logger) ([]byte, []exam.PageReport, exam.MarkerReport, error) {
	doc, err := pdfdoc.Open(data, log)
	if err != nil {
		return nil, nil, exam.MarkerReport{}, err
	}
	defer doc.Close()

	pages, err := p.engine.Process(doc, set)
	if err != nil {
		return nil, pages, exam.MarkerReport{}, fmt.Errorf("cancel questions: %w", err)
	}
	for _, rep := range pages {
		if len(rep.Degenerate) > 0 {
			log.Warn("cancelled question has no area", "page", rep.Page, "questions", rep.Degenerate)
		}
	}

	marker, err := p.marker.Apply(doc, set)
	if err != nil {
		return nil, pages, marker, fmt.Errorf("mark answer key: %w", err)
	}
	if len(marker.OutOfRange) > 0 {
		log.Warn("cancelled questions beyond the answer row", "questions", marker.OutOfRange, "row_size", marker.RowSize)
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, pages, marker, err
	}
	return out, pages, marker, nil
}

func countCancelled(pages []exam.PageReport) int {
	n := 0
	for _, rep := range pages {
		n += len(rep.Cancelled) - len(rep.Degenerate)
	}
	return n
}

// GetRun returns a run by ID.
func (p *Processor) GetRun(id string) *Run {
	return p.runs.Get(id)
}

// StatsReport describes the processor's recent activity.
type StatsReport struct {
	Window        StatsSnapshot `json:"window"`
	InFlight      int64         `json:"in_flight"`
	MaxConcurrent int           `json:"max_concurrent"`
	Runs          int           `json:"runs"`
	Fonts         fonts.Set     `json:"fonts"`
}

// Stats returns a snapshot of latency and load.
func (p *Processor) Stats() StatsReport {
	return StatsReport{
		Window:        p.stats.Snapshot(),
		InFlight:      p.inFlight.Load(),
		MaxConcurrent: cap(p.sem),
		Runs:          p.runs.Len(),
		Fonts:         p.fonts,
	}
}
