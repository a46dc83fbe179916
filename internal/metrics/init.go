package metrics

// Label values used across the package.
var (
	scanModes    = []string{"streaming", "batch", "folders"}
	scanResults  = []string{"success", "error", "canceled"}
	fsOperations = []string{"stat", "readdir"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, mode := range scanModes {
		for _, result := range scanResults {
			ScanRunsTotal.WithLabelValues(mode, result)
		}
		ScanLastRunDuration.WithLabelValues(mode)
		ScanEntriesDiscovered.WithLabelValues(mode)
		ScanEntriesProcessed.WithLabelValues(mode)
		ScanErrors.WithLabelValues(mode)
	}

	for _, status := range []string{"success", "error"} {
		BatchFlushDuration.WithLabelValues(status)
	}

	for _, result := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(result)
	}

	for _, op := range fsOperations {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
