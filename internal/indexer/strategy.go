package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"file-indexer/internal/logging"
)

// Mode selects what a scan collects and how it hands entries to workers.
type Mode string

const (
	// ModeStreaming walks and processes concurrently through a bounded queue.
	ModeStreaming Mode = "streaming"
	// ModeBatch collects the whole tree first, then processes it.
	ModeBatch Mode = "batch"
	// ModeFolders streams directories instead of files.
	ModeFolders Mode = "folders"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStreaming, "":
		return ModeStreaming, nil
	case ModeBatch:
		return ModeBatch, nil
	case ModeFolders:
		return ModeFolders, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q", s)
	}
}

// strategy feeds collected entries to the scan's workers. run returns once
// every entry it accepted has been handled or dropped on cancellation, and
// every worker has exited.
type strategy interface {
	run(ctx context.Context, s *scan) error
}

func strategyFor(mode Mode) strategy {
	if mode == ModeBatch {
		return eager{}
	}
	return streaming{}
}

// streaming runs one collector and a fixed set of workers around a bounded
// queue. The collector blocks while the queue is full.
type streaming struct{}

func (streaming) run(ctx context.Context, s *scan) error {
	q := NewQueue(s.queueSize)
	s.queue = q

	var walkErr error
	var wg conc.WaitGroup

	wg.Go(func() {
		defer q.Close()

		collected := 0
		walkErr = s.collect(ctx, func(e Entry) error {
			if err := q.Push(ctx, e); err != nil {
				return err
			}
			s.discovered()
			collected++
			if collected%1000 == 0 {
				logging.Info("Collected %d entries into the queue...", collected)
			}
			return nil
		})
		if walkErr != nil && ctx.Err() == nil {
			logging.Error("Collector for %s stopped: %v", s.root, walkErr)
		}
	})

	for i := 0; i < s.workers; i++ {
		id := i
		wg.Go(func() {
			owner := s.workerOwner(id)
			defer s.release(owner)

			wctx := s.workerContext(ctx, owner)
			for {
				e, ok := q.Pop()
				if !ok {
					return
				}
				if ctx.Err() != nil {
					// Drain without handling so the collector never blocks.
					continue
				}
				s.results <- s.handle(wctx, e)
			}
		})
	}

	wg.Wait()
	return walkErr
}

// eager materializes the full entry list before handing it to a pool of
// workers. Memory grows with the tree, but the total is known up front.
type eager struct{}

func (eager) run(ctx context.Context, s *scan) error {
	var entries []Entry
	err := s.collect(ctx, func(e Entry) error {
		entries = append(entries, e)
		s.discovered()
		if len(entries)%10000 == 0 {
			logging.Info("Collected %d files...", len(entries))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() == nil {
			logging.Error("Collection of %s failed: %v", s.root, err)
		}
		return err
	}

	logging.Info("Collected %d entries, processing with %d workers", len(entries), s.workers)
	s.progress.total.Store(int64(len(entries)))

	// Worker identities are handed out as tokens so each running task
	// writes on a connection no other task holds at the same time.
	ids := make(chan int, s.workers)
	for i := 0; i < s.workers; i++ {
		ids <- i
	}

	p := pool.New().WithMaxGoroutines(s.workers)
	for _, e := range entries {
		e := e
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			id := <-ids
			defer func() { ids <- id }()

			if ctx.Err() != nil {
				return
			}
			s.results <- s.handle(s.workerContext(ctx, s.workerOwner(id)), e)
		})
	}
	p.Wait()
	entries = nil

	for i := 0; i < s.workers; i++ {
		s.release(s.workerOwner(i))
	}
	return nil
}
