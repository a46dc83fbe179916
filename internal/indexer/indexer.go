package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"file-indexer/internal/database"
	"file-indexer/internal/filesystem"
	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
	"file-indexer/internal/workers"
)

// DefaultQueueSize is the capacity of the streaming hand-off queue.
const DefaultQueueSize = 1000

// ErrScanInProgress is returned when a scan or clear is requested while
// another scan is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Config controls how an Indexer runs scans.
type Config struct {
	Workers   int
	BatchSize int
	QueueSize int
	// Mode is the strategy used by ScanWithMode when given an empty mode.
	Mode  Mode
	Retry filesystem.RetryConfig

	// OnProgress, if set, is called from the result drain after every
	// handled entry. It must not block.
	OnProgress func(ProgressSnapshot)
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Workers:   workers.DefaultScanWorkers,
		BatchSize: DefaultBatchSize,
		QueueSize: DefaultQueueSize,
		Mode:      ModeStreaming,
		Retry:     filesystem.NoRetry(),
	}
}

// Indexer runs scans against one metadata store and answers queries on it.
// At most one scan runs at a time.
type Indexer struct {
	db  *database.Database
	cfg Config

	scanMu     sync.Mutex
	isScanning bool
	lastResult *ScanResult
	background sync.WaitGroup

	progress atomic.Pointer[Progress]
}

// New creates an Indexer over db.
func New(db *database.Database, cfg Config) *Indexer {
	cfg.Workers = workers.Resolve(cfg.Workers)
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeStreaming
	}

	return &Indexer{db: db, cfg: cfg}
}

// Config returns the effective configuration.
func (idx *Indexer) Config() Config {
	return idx.cfg
}

// Scan indexes every file under root using the streaming pipeline.
func (idx *Indexer) Scan(ctx context.Context, root string) (ScanResult, error) {
	return idx.run(ctx, root, ModeStreaming)
}

// ScanBatch indexes every file under root, collecting the whole tree first.
func (idx *Indexer) ScanBatch(ctx context.Context, root string) (ScanResult, error) {
	return idx.run(ctx, root, ModeBatch)
}

// ScanFolders indexes every directory under root.
func (idx *Indexer) ScanFolders(ctx context.Context, root string) (ScanResult, error) {
	return idx.run(ctx, root, ModeFolders)
}

// ScanWithMode runs the pipeline for mode, or the configured mode if empty.
func (idx *Indexer) ScanWithMode(ctx context.Context, root string, mode Mode) (ScanResult, error) {
	if mode == "" {
		mode = idx.cfg.Mode
	}
	return idx.run(ctx, root, mode)
}

// Start runs a scan in the background. It returns ErrScanInProgress
// immediately if another scan is running; otherwise done, if not nil, is
// called with the outcome once the scan ends.
func (idx *Indexer) Start(ctx context.Context, root string, mode Mode, done func(ScanResult, error)) error {
	if mode == "" {
		mode = idx.cfg.Mode
	}
	if !idx.tryStartScan() {
		return ErrScanInProgress
	}

	idx.background.Add(1)
	go func() {
		defer idx.background.Done()
		defer idx.finishScan()

		result, err := idx.execute(ctx, root, mode)
		if done != nil {
			done(result, err)
		}
	}()
	return nil
}

// Wait blocks until background scans started with Start have returned.
func (idx *Indexer) Wait() {
	idx.background.Wait()
}

func (idx *Indexer) run(ctx context.Context, root string, mode Mode) (ScanResult, error) {
	if !idx.tryStartScan() {
		return ScanResult{Mode: mode, Root: root}, ErrScanInProgress
	}
	defer idx.finishScan()

	return idx.execute(ctx, root, mode)
}

func (idx *Indexer) execute(ctx context.Context, root string, mode Mode) (ScanResult, error) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	runID := uuid.NewString()
	p := newProgress(runID, mode, root)
	idx.progress.Store(p)

	s := newScan(runID, mode, root, idx.cfg, idx.db, p)

	metrics.ScanRunning.Set(1)
	defer metrics.ScanRunning.Set(0)

	result, err := s.execute(ctx, strategyFor(mode))
	p.finish()

	label := "success"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		label = "canceled"
	case err != nil:
		label = "error"
	}
	metrics.ScanRunsTotal.WithLabelValues(string(mode), label).Inc()
	metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanLastRunDuration.WithLabelValues(string(mode)).Set(result.Duration.Seconds())

	idx.scanMu.Lock()
	idx.lastResult = &result
	idx.scanMu.Unlock()

	return result, err
}

func (idx *Indexer) tryStartScan() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	if idx.isScanning {
		return false
	}
	idx.isScanning = true
	return true
}

func (idx *Indexer) finishScan() {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	idx.isScanning = false
}

// IsRunning reports whether a scan is in progress.
func (idx *Indexer) IsRunning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.isScanning
}

// Progress returns the progress of the current or most recent scan.
// ok is false if no scan has started yet.
func (idx *Indexer) Progress() (snap ProgressSnapshot, ok bool) {
	p := idx.progress.Load()
	if p == nil {
		return ProgressSnapshot{}, false
	}
	return p.Snapshot(), true
}

// LastResult returns the result of the most recent completed scan.
func (idx *Indexer) LastResult() (ScanResult, bool) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	if idx.lastResult == nil {
		return ScanResult{}, false
	}
	return *idx.lastResult, true
}

// Search finds files by exact name or by substring.
func (idx *Indexer) Search(ctx context.Context, term string, exact bool) ([]database.FileMatch, error) {
	return idx.db.SearchFiles(ctx, term, exact)
}

// SearchFolders finds folders by exact name or by substring.
func (idx *Indexer) SearchFolders(ctx context.Context, term string, exact bool) ([]database.FolderMatch, error) {
	return idx.db.SearchFolders(ctx, term, exact)
}

// SearchByExtension finds files whose name ends in ext. A leading dot is
// optional.
func (idx *Indexer) SearchByExtension(ctx context.Context, ext string) ([]database.FileMatch, error) {
	return idx.db.SearchByExtension(ctx, ext)
}

// Stats summarizes the index.
func (idx *Indexer) Stats(ctx context.Context) (database.IndexStats, error) {
	return idx.db.Stats(ctx)
}

// Clear deletes every record. It refuses while a scan is running.
func (idx *Indexer) Clear(ctx context.Context) (int64, error) {
	if !idx.tryStartScan() {
		return 0, ErrScanInProgress
	}
	defer idx.finishScan()

	n, err := idx.db.Clear(ctx)
	if err != nil {
		return 0, err
	}
	logging.Info("Cleared %d records from the index", n)
	return n, nil
}

// Close releases the store.
func (idx *Indexer) Close() error {
	return idx.db.Close()
}
