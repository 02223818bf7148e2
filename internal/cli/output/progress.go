package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress draws a single-line progress bar for a fixed number of
// operations. It is safe for concurrent use.
type Progress struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	start   time.Time
	last    time.Time
	every   time.Duration
	mu      sync.Mutex
}

// NewProgress creates a bar for total operations. Redraws are limited to
// one per 100ms.
func NewProgress(w io.Writer, title string, total int64) *Progress {
	now := time.Now()
	return &Progress{
		w:     w,
		title: title,
		total: total,
		width: 40,
		start: now,
		every: 100 * time.Millisecond,
	}
}

// Add records n more completed operations.
func (p *Progress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	if now := time.Now(); now.Sub(p.last) >= p.every || p.current >= p.total {
		p.last = now
		p.render(now)
	}
}

// Finish draws the final state and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render(time.Now())
	fmt.Fprintln(p.w)
}

func (p *Progress) render(now time.Time) {
	rate := 0.0
	if elapsed := now.Sub(p.start).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d ops (%.0f ops/s)", p.title, p.current, rate)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d, %.0f ops/s)",
		p.title, bar, percent*100, p.current, p.total, rate)
}
