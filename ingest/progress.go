package ingest

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressTracker reports ingestion progress to a writer, typically stderr.
type progressTracker struct {
	writer io.Writer
	total  int

	mu       sync.Mutex
	current  int
	reported int
	interval int
	start    time.Time
}

// newProgressTracker reports every interval completed units.
func newProgressTracker(writer io.Writer, total, interval int) *progressTracker {
	if interval < 1 {
		interval = 1
	}
	return &progressTracker{
		writer:   writer,
		total:    total,
		interval: interval,
		start:    time.Now(),
	}
}

// Increment advances progress by delta completed units.
func (p *progressTracker) Increment(delta int) {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}
	if p.current-p.reported >= p.interval {
		p.report()
		p.reported = p.current
	}
}

// Finish prints the final progress line.
func (p *progressTracker) Finish() {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.writer)
}

// report prints the current progress. Must be called with lock held.
func (p *progressTracker) report() {
	elapsed := time.Since(p.start)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIngesting: %d/%d units (%.1f%%) - %.1f units/s",
		p.current, p.total, percentage, rate)
}
