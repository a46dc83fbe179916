package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScanMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ScanRunsTotal", ScanRunsTotal},
		{"ScanRunning", ScanRunning},
		{"ScanEntriesDiscovered", ScanEntriesDiscovered},
		{"ScanEntriesProcessed", ScanEntriesProcessed},
		{"ScanErrors", ScanErrors},
		{"ScanQueueDepth", ScanQueueDepth},
		{"ScanQueueHighWater", ScanQueueHighWater},
		{"BatchFlushDuration", BatchFlushDuration},
		{"BatchSize", BatchSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(ScanRunsTotal); got < len(scanModes)*len(scanResults) {
		t.Errorf("Expected at least %d ScanRunsTotal series, got %d", len(scanModes)*len(scanResults), got)
	}
	if got := testutil.CollectAndCount(FilesystemStaleErrors); got < len(fsOperations) {
		t.Errorf("Expected at least %d FilesystemStaleErrors series, got %d", len(fsOperations), got)
	}
}

func TestScanCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(ScanEntriesProcessed.WithLabelValues("folders"))
	ScanEntriesProcessed.WithLabelValues("folders").Add(3)
	after := testutil.ToFloat64(ScanEntriesProcessed.WithLabelValues("folders"))

	if after-before != 3 {
		t.Errorf("Expected counter to grow by 3, got %v", after-before)
	}
}
