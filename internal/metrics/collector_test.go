package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockSnapshotProvider struct {
	calls atomic.Int32
	snap  Snapshot
	err   error
}

func (m *mockSnapshotProvider) MetricsSnapshot(_ context.Context) (Snapshot, error) {
	m.calls.Add(1)
	return m.snap, m.err
}

// Collector tests share the index gauges, so they run sequentially.

func TestCollectorPublishesSnapshot(t *testing.T) {
	provider := &mockSnapshotProvider{snap: Snapshot{TotalFiles: 12, TotalFolders: 3, TotalSizeMB: 4.5}}

	c := NewCollector(provider, time.Hour)
	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.calls.Load() == 0 {
		t.Fatal("Expected collector to query the provider on start")
	}
	if got := testutil.ToFloat64(IndexFilesTotal); got != 12 {
		t.Errorf("Expected IndexFilesTotal=12, got %v", got)
	}
	if got := testutil.ToFloat64(IndexFoldersTotal); got != 3 {
		t.Errorf("Expected IndexFoldersTotal=3, got %v", got)
	}
	if got := testutil.ToFloat64(IndexSizeMegabytes); got != 4.5 {
		t.Errorf("Expected IndexSizeMegabytes=4.5, got %v", got)
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	IndexFilesTotal.Set(7)
	provider := &mockSnapshotProvider{err: errors.New("store closed")}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(IndexFilesTotal); got != 7 {
		t.Errorf("Expected gauge untouched on error, got %v", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}
