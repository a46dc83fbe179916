package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"file-indexer/internal/database"
	"file-indexer/internal/filesystem"
	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
)

// ErrPathNotFound is returned when the scan root does not exist.
var ErrPathNotFound = errors.New("path not found")

// Store is the part of the metadata store a scan writes through.
type Store interface {
	RecordStore
	UpsertOne(ctx context.Context, rec database.Record) error
	CloseConn(owner string) error
}

// ScanResult summarizes one scan run. Processed counts entries committed to
// the store; Errors counts entries skipped as unreadable.
type ScanResult struct {
	RunID          string        `json:"runId"`
	Mode           Mode          `json:"mode"`
	Root           string        `json:"root"`
	Discovered     int64         `json:"discovered"`
	Processed      int64         `json:"processed"`
	Errors         int64         `json:"errors"`
	Batches        int           `json:"batches"`
	QueueHighWater int64         `json:"queueHighWater"`
	StartedAt      time.Time     `json:"startedAt"`
	Duration       time.Duration `json:"duration"`
}

// SuccessRate returns processed entries as a percentage of all handled
// entries, or 0 when nothing was handled.
func (r ScanResult) SuccessRate() float64 {
	total := r.Processed + r.Errors
	if total == 0 {
		return 0
	}
	return float64(r.Processed) / float64(total) * 100
}

// outcome is what a worker reports for one entry. A fatal outcome carries a
// store failure that ends the run; any other error is counted and skipped.
type outcome struct {
	probe   ProbeResult
	err     error
	fatal   bool
	written bool
}

// scan is the state of one pipeline run shared by the strategy, the
// workers and the result drain.
type scan struct {
	id        string
	mode      Mode
	root      string
	workers   int
	queueSize int
	batchSize int
	retry     filesystem.RetryConfig
	store     Store
	progress  *Progress
	notify    func(ProgressSnapshot)

	queue   *Queue
	results chan outcome
}

func newScan(runID string, mode Mode, root string, cfg Config, store Store, p *Progress) *scan {
	return &scan{
		id:        runID,
		mode:      mode,
		root:      root,
		workers:   cfg.Workers,
		queueSize: cfg.QueueSize,
		batchSize: cfg.BatchSize,
		retry:     cfg.Retry,
		store:     store,
		progress:  p,
		notify:    cfg.OnProgress,
	}
}

// collect walks the root and passes each entry the scan is interested in
// to push: files, or subdirectories in folder mode.
func (s *scan) collect(ctx context.Context, push func(Entry) error) error {
	opts := filesystem.WalkOptions{
		Retry: s.retry,
		OnError: func(dir string, err error) {
			logging.Warn("Skipping unreadable directory %s: %v", dir, err)
		},
	}

	return filesystem.Walk(ctx, s.root, opts, func(dir string, subdirs, files []string) error {
		names := files
		if s.mode == ModeFolders {
			names = subdirs
		}
		for _, name := range names {
			if err := push(Entry{Name: name, Path: filepath.Join(dir, name)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// handle processes one entry on a worker. Files are probed and handed to the
// batch writer by the drain; folders are checked on disk, then written
// directly on the worker's own connection.
func (s *scan) handle(ctx context.Context, e Entry) outcome {
	if s.mode != ModeFolders {
		res, err := Probe(e.Name, e.Path, s.retry)
		return outcome{probe: res, err: err}
	}

	if _, err := filesystem.StatWithRetry(e.Path, s.retry); err != nil {
		logging.Warn("Skipping folder %s: %v", e.Path, err)
		return outcome{err: fmt.Errorf("%w: %w", ErrSkipped, err)}
	}
	if err := s.store.UpsertOne(ctx, database.NewFolderRecord(e.Name, e.Path)); err != nil {
		logging.Error("Failed to write folder %s: %v", e.Path, err)
		return outcome{err: err, fatal: true}
	}
	return outcome{written: true}
}

// committed counts n entries that reached the store.
func (s *scan) committed(n int64) {
	if n == 0 {
		return
	}
	s.progress.processed.Add(n)
	metrics.ScanEntriesProcessed.WithLabelValues(string(s.mode)).Add(float64(n))
}

func (s *scan) discovered() {
	s.progress.discovered.Add(1)
	metrics.ScanEntriesDiscovered.WithLabelValues(string(s.mode)).Inc()
}

func (s *scan) workerOwner(id int) string {
	return fmt.Sprintf("scan-%s-worker-%d", s.id[:8], id)
}

func (s *scan) writerOwner() string {
	return fmt.Sprintf("scan-%s-writer", s.id[:8])
}

// workerContext binds owner to ctx without its cancellation, so a write
// already in progress completes after the scan is canceled.
func (s *scan) workerContext(ctx context.Context, owner string) context.Context {
	return database.WithOwner(context.WithoutCancel(ctx), owner)
}

func (s *scan) release(owner string) {
	if err := s.store.CloseConn(owner); err != nil {
		logging.Warn("Failed to close store connection for %s: %v", owner, err)
	}
}

// execute runs strat to completion and drains its results into the batch
// writer. It always flushes the final partial batch unless a write already
// failed. Processed counts entries committed to the store, so a dropped
// batch never shows up as processed.
func (s *scan) execute(ctx context.Context, strat strategy) (ScanResult, error) {
	result := ScanResult{
		RunID:     s.id,
		Mode:      s.mode,
		Root:      s.root,
		StartedAt: s.progress.startedAt,
	}

	if !filesystem.Exists(s.root) {
		logging.Error("Scan root %s does not exist", s.root)
		return result, fmt.Errorf("%w: %s", ErrPathNotFound, s.root)
	}

	logging.Info("Starting %s scan of %s with %d workers (run %s)", s.mode, s.root, s.workers, s.id)
	metrics.ScanWorkers.Set(float64(s.workers))
	metrics.ScanQueueHighWater.Set(0)

	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	s.results = make(chan outcome, s.workers)

	var walkErr error
	go func() {
		defer close(s.results)
		walkErr = strat.run(runCtx, s)
	}()

	writer := NewBatchWriter(s.store, s.batchSize)
	wctx := s.workerContext(ctx, s.writerOwner())
	modeLabel := string(s.mode)

	var writeErr error
	for o := range s.results {
		if writeErr != nil {
			continue
		}

		switch {
		case o.fatal:
			writeErr = o.err
			abort()
		case o.err != nil:
			s.progress.errors.Add(1)
			metrics.ScanErrors.WithLabelValues(modeLabel).Inc()
		case o.written:
			s.committed(1)
		default:
			before := writer.Written()
			err := writer.Add(wctx, o.probe)
			s.committed(writer.Written() - before)
			if err != nil {
				writeErr = err
				abort()
			}
		}

		if s.notify != nil {
			s.notify(s.progress.Snapshot())
		}
	}

	if writeErr == nil {
		before := writer.Written()
		writeErr = writer.Flush(wctx)
		s.committed(writer.Written() - before)
	}
	s.release(s.writerOwner())
	s.progress.finish()

	snap := s.progress.Snapshot()
	result.Discovered = snap.Discovered
	result.Processed = snap.Processed
	result.Errors = snap.Errors
	result.Batches = writer.Batches()
	result.Duration = time.Since(result.StartedAt)
	if s.queue != nil {
		result.QueueHighWater = s.queue.HighWater()
		metrics.ScanQueueHighWater.Set(float64(result.QueueHighWater))
	}
	metrics.ScanQueueDepth.Set(0)

	logging.Info("Scan of %s finished: %d processed, %d errors, %.1f%% success in %v",
		s.root, result.Processed, result.Errors, result.SuccessRate(), result.Duration.Round(time.Millisecond))

	switch {
	case writeErr != nil:
		return result, fmt.Errorf("failed to write %s records: %w", s.mode, writeErr)
	case ctx.Err() != nil:
		logging.Warn("Scan of %s canceled", s.root)
		return result, ctx.Err()
	case walkErr != nil:
		return result, fmt.Errorf("walk of %s failed: %w", s.root, walkErr)
	}
	return result, nil
}
