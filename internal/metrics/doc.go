// Package metrics provides Prometheus instrumentation for the file indexer.
//
// All metrics are prefixed with "file_indexer_".
//
// # Metric Categories
//
// ## Scan Metrics
//
//   - ScanRunsTotal: scan runs by mode and result
//   - ScanEntriesDiscovered / ScanEntriesProcessed / ScanErrors: per-mode entry accounting
//   - ScanQueueDepth / ScanQueueHighWater: collector queue occupancy
//   - BatchFlushDuration / BatchSize: batch writer behaviour
//
// ## Database Metrics
//
//   - DBQueryTotal / DBQueryDuration: per-operation query accounting
//   - DBTransactionDuration: upsert transactions by commit or rollback
//   - DBConnectionsRegistered: worker-owned connections held by the registry
//
// ## Index Metrics
//
// IndexFilesTotal, IndexFoldersTotal and IndexSizeMegabytes are refreshed
// by a Collector while the HTTP server runs.
//
// ## Filesystem and HTTP Metrics
//
// Stale-handle retry counters per operation and request counters for the
// query API.
package metrics
