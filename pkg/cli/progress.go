package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter renders the progress of a multi-provider fetch.
type ProgressReporter interface {
	Start(label string)
	// Update takes a percentage between 0 and 100.
	Update(percent float64)
	Finish()
	Error(err error)
}

// SimpleProgress draws a single-line bar, redrawn in place.
type SimpleProgress struct {
	mu      sync.Mutex
	label   string
	percent float64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a reporter writing to w, or os.Stderr when w
// is nil so that progress never mixes with command output.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start resets the bar.
func (p *SimpleProgress) Start(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.label = label
	p.percent = 0
	p.started = time.Now()
	p.render()
}

// Update redraws the bar. Values are clamped to 0..100.
func (p *SimpleProgress) Update(percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.percent = min(max(percent, 0), 100)
	p.render()
}

// Finish draws a full bar and ends the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.percent = 100
	p.render()
	fmt.Fprintln(p.writer)
}

// Error ends the bar with an error line.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) render() {
	const barWidth = 40
	filled := int(barWidth * p.percent / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.writer, "\r%s [%s] %5.1f%% %s",
		p.label, bar, p.percent, time.Since(p.started).Round(100*time.Millisecond))
}

// NoProgress discards all progress. Used with --quiet and non-text output.
type NoProgress struct{}

func (NoProgress) Start(string)   {}
func (NoProgress) Update(float64) {}
func (NoProgress) Finish()        {}
func (NoProgress) Error(error)    {}
