package output

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/maxvaer/scanport/internal/scanner"
	"golang.org/x/term"
)

// Progress counts probe outcomes and, when enabled on a terminal, displays a
// live progress line on stderr.
type Progress struct {
	total       int
	completed   atomic.Int64
	reachable   atomic.Int64
	unreachable atomic.Int64
	hostDown    atomic.Int64
	start       time.Time
	done        chan struct{}
	stopped     chan struct{}
	show        bool
	w           io.Writer
}

// NewProgress creates a progress tracker for total probes. The line is only
// drawn if show is set and stderr is a terminal. Call Start() to begin
// display updates.
func NewProgress(total int, show bool) *Progress {
	return &Progress{
		total:   total,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		show:    show && isatty.IsTerminal(os.Stderr.Fd()),
		w:       os.Stderr,
	}
}

// Start begins periodically printing progress to stderr.
func (p *Progress) Start() {
	if !p.show {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(p.w, "\n")
				return
			}
		}
	}()
}

// Observe records one completed probe. It is safe for concurrent use.
func (p *Progress) Observe(r scanner.Result) {
	p.completed.Add(1)
	switch r.Outcome {
	case scanner.Reachable:
		p.reachable.Add(1)
	case scanner.HostDown:
		p.hostDown.Add(1)
	default:
		p.unreachable.Add(1)
	}
}

// Stop ends the progress display and waits for the last line to be drawn.
func (p *Progress) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	<-p.stopped
}

// Stats returns the counters gathered so far.
func (p *Progress) Stats() Stats {
	s := Stats{
		Probes:      int(p.completed.Load()),
		Reachable:   int(p.reachable.Load()),
		Unreachable: int(p.unreachable.Load()),
		HostDown:    int(p.hostDown.Load()),
		Duration:    time.Since(p.start),
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.ProbesPerSec = float64(s.Probes) / secs
	}
	return s
}

func (p *Progress) print() {
	completed := p.completed.Load()
	pct := float64(0)
	if p.total > 0 {
		pct = float64(completed) / float64(p.total) * 100
	}

	line := fmt.Sprintf("[%3.0f%%] %d/%d probes | Reachable: %d | Host down: %d | %s",
		pct, completed, p.total, p.reachable.Load(), p.hostDown.Load(),
		time.Since(p.start).Round(100*time.Millisecond))

	// Keep the line from wrapping, which would break the \r redraw.
	if width, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && width > 1 && len(line) >= width {
		line = line[:width-1]
	}
	fmt.Fprintf(p.w, "\r\033[K%s", line)
}
