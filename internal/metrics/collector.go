package metrics

import (
	"context"
	"time"

	"file-indexer/internal/logging"
)

// Snapshot is the index summary the Collector publishes.
type Snapshot struct {
	TotalFiles   int64
	TotalFolders int64
	TotalSizeMB  float64
}

// SnapshotProvider supplies index totals on demand.
type SnapshotProvider interface {
	MetricsSnapshot(ctx context.Context) (Snapshot, error)
}

// Collector periodically publishes index totals as gauges.
type Collector struct {
	provider SnapshotProvider
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider SnapshotProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	snap, err := c.provider.MetricsSnapshot(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	IndexFilesTotal.Set(float64(snap.TotalFiles))
	IndexFoldersTotal.Set(float64(snap.TotalFolders))
	IndexSizeMegabytes.Set(snap.TotalSizeMB)

	logging.Debug("Metrics collected: files=%d, folders=%d, size=%.2fMB",
		snap.TotalFiles, snap.TotalFolders, snap.TotalSizeMB)
}
