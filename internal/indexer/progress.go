package indexer

import (
	"sync/atomic"
	"time"
)

// Progress holds the live counters of one scan run.
type Progress struct {
	runID     string
	mode      Mode
	root      string
	startedAt time.Time

	running    atomic.Bool
	discovered atomic.Int64
	processed  atomic.Int64
	errors     atomic.Int64
	total      atomic.Int64
	finishedAt atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of a scan's progress.
// Total is only known in batch mode and is zero otherwise.
type ProgressSnapshot struct {
	RunID      string    `json:"runId"`
	Mode       Mode      `json:"mode"`
	Root       string    `json:"root"`
	Running    bool      `json:"running"`
	Discovered int64     `json:"discovered"`
	Processed  int64     `json:"processed"`
	Errors     int64     `json:"errors"`
	Total      int64     `json:"total"`
	StartedAt  time.Time `json:"startedAt"`
	Elapsed    float64   `json:"elapsedSeconds"`
	Rate       float64   `json:"entriesPerSecond"`
}

func newProgress(runID string, mode Mode, root string) *Progress {
	p := &Progress{runID: runID, mode: mode, root: root, startedAt: time.Now()}
	p.running.Store(true)
	return p
}

func (p *Progress) finish() {
	p.finishedAt.Store(time.Now().UnixNano())
	p.running.Store(false)
}

// Snapshot copies the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	end := time.Now()
	if ns := p.finishedAt.Load(); ns != 0 {
		end = time.Unix(0, ns)
	}
	elapsed := end.Sub(p.startedAt).Seconds()

	snap := ProgressSnapshot{
		RunID:      p.runID,
		Mode:       p.mode,
		Root:       p.root,
		Running:    p.running.Load(),
		Discovered: p.discovered.Load(),
		Processed:  p.processed.Load(),
		Errors:     p.errors.Load(),
		Total:      p.total.Load(),
		StartedAt:  p.startedAt,
		Elapsed:    elapsed,
	}
	if elapsed > 0 {
		snap.Rate = float64(snap.Processed+snap.Errors) / elapsed
	}
	return snap
}
