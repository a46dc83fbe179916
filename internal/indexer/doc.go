// Package indexer implements the scan-and-index pipeline.
//
// A scan walks a root directory and feeds each discovered entry to a fixed
// pool of workers. Workers stat files with Probe and hand the results to a
// single BatchWriter, which upserts them into the store in transactions of
// DefaultBatchSize records. Two collection strategies share that core:
//
//   - Streaming: a collector goroutine pushes entries onto a bounded Queue
//     while workers pop them. A full queue blocks the collector.
//   - Batch: the whole entry list is collected first, giving a known total,
//     then dispatched to a worker pool.
//
// Folder scans stream directories instead of files and write one folder
// record per entry on the worker's own store connection.
//
// Unreadable entries are skipped and counted, never logged individually.
// A failed batch write stops the scan and is returned to the caller.
// Canceling the context stops collection, drains the queue without further
// work and still flushes the pending batch.
//
// The Indexer type guards against concurrent scans and exposes the query
// operations of the store alongside live progress.
package indexer
