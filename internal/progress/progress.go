// Package progress renders live scan progress on the console.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"file-indexer/internal/indexer"
)

const (
	terminalInterval = 100 * time.Millisecond
	plainInterval    = 5 * time.Second
)

// Reporter redraws a single status line on a terminal, or prints a line
// every few seconds when output is redirected.
type Reporter struct {
	out      io.Writer
	tty      bool
	throttle *rate.Sometimes

	mu        sync.Mutex
	lastWidth int
}

// New creates a Reporter writing to out.
func New(out io.Writer) *Reporter {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}

	interval := plainInterval
	if tty {
		interval = terminalInterval
	}

	return &Reporter{
		out:      out,
		tty:      tty,
		throttle: &rate.Sometimes{Interval: interval},
	}
}

// Update renders snap, subject to throttling. Safe to pass as
// indexer.Config.OnProgress.
func (r *Reporter) Update(snap indexer.ProgressSnapshot) {
	r.throttle.Do(func() { r.render(snap) })
}

// Finish renders snap unthrottled and ends the status line.
func (r *Reporter) Finish(snap indexer.ProgressSnapshot) {
	r.render(snap)
	if r.tty {
		r.mu.Lock()
		fmt.Fprintln(r.out)
		r.lastWidth = 0
		r.mu.Unlock()
	}
}

func (r *Reporter) render(snap indexer.ProgressSnapshot) {
	line := Format(snap)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.tty {
		fmt.Fprintln(r.out, line)
		return
	}

	pad := ""
	if n := r.lastWidth - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(r.out, "\r%s%s", line, pad)
	r.lastWidth = len(line)
}

// Format returns the one-line status for snap.
func Format(snap indexer.ProgressSnapshot) string {
	done := snap.Processed + snap.Errors

	var b strings.Builder
	b.WriteString("Processing: ")
	if snap.Total > 0 {
		pct := float64(done) / float64(snap.Total) * 100
		fmt.Fprintf(&b, "%s/%s (%.1f%%)", humanize.Comma(done), humanize.Comma(snap.Total), pct)
	} else {
		fmt.Fprintf(&b, "%s items", humanize.Comma(done))
	}
	if snap.Errors > 0 {
		fmt.Fprintf(&b, ", %s errors", humanize.Comma(snap.Errors))
	}
	fmt.Fprintf(&b, " [%s/s]", humanize.Comma(int64(snap.Rate)))
	return b.String()
}
