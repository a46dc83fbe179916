package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_indexer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_indexer_db_transaction_duration_seconds",
			Help:    "Duration of upsert transactions by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"result"}, // "commit", "rollback"
	)

	DBRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_indexer_db_rows_written_total",
			Help: "Total number of records upserted into the index",
		},
	)

	DBConnectionsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_db_connections_registered",
			Help: "Number of worker-owned connections currently held by the registry",
		},
	)
)

// Scan pipeline metrics. The mode label is "streaming", "batch" or "folders".
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_scan_runs_total",
			Help: "Total number of scan runs by mode and result",
		},
		[]string{"mode", "result"},
	)

	ScanRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_last_run_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
		[]string{"mode"},
	)

	ScanEntriesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_scan_entries_discovered_total",
			Help: "Entries handed to workers by the collector",
		},
		[]string{"mode"},
	)

	ScanEntriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_scan_entries_processed_total",
			Help: "Entries successfully probed and recorded",
		},
		[]string{"mode"},
	)

	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_scan_errors_total",
			Help: "Entries skipped because they could not be read or recorded",
		},
		[]string{"mode"},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_workers",
			Help: "Number of workers used by the current or last scan",
		},
	)

	ScanQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_queue_depth",
			Help: "Entries waiting in the collector queue",
		},
	)

	ScanQueueHighWater = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_scan_queue_high_water",
			Help: "Largest queue depth observed during the current or last scan",
		},
	)

	BatchFlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "file_indexer_batch_flush_duration_seconds",
			Help:    "Time spent flushing one batch to the store",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"status"},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_indexer_batch_size",
			Help:    "Number of records per flushed batch",
			Buckets: []float64{1, 10, 25, 50, 75, 100, 250, 500},
		},
	)
)

// Index content metrics, refreshed by the Collector
var (
	IndexFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_index_files",
			Help: "Number of file records in the index",
		},
	)

	IndexFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_index_folders",
			Help: "Number of folder records in the index",
		},
	)

	IndexSizeMegabytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "file_indexer_index_size_megabytes",
			Help: "Sum of indexed file sizes in megabytes",
		},
	)
)

// Filesystem retry metrics for stale NFS handles
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_filesystem_retry_attempts_total",
			Help: "Retry attempts after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_filesystem_retry_failures_total",
			Help: "Operations that still failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_indexer_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation"},
	)
)
