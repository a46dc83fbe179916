package indexer

import (
	"context"
	"time"

	"file-indexer/internal/database"
	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
)

// DefaultBatchSize is the number of records per store transaction.
const DefaultBatchSize = 100

// RecordStore is the write side of the store used by BatchWriter.
type RecordStore interface {
	UpsertMany(ctx context.Context, recs []database.Record) error
}

// BatchWriter turns probe results into file records and writes them in
// groups of size. It is owned by a single goroutine.
type BatchWriter struct {
	store   RecordStore
	size    int
	buf     []database.Record
	batches int
	written int64
}

// NewBatchWriter creates a writer flushing every size records.
func NewBatchWriter(store RecordStore, size int) *BatchWriter {
	if size < 1 {
		size = DefaultBatchSize
	}
	return &BatchWriter{
		store: store,
		size:  size,
		buf:   make([]database.Record, 0, size),
	}
}

// Add buffers r and flushes when the buffer reaches the batch size.
func (w *BatchWriter) Add(ctx context.Context, r ProbeResult) error {
	w.buf = append(w.buf, database.NewFileRecord(r.Name, r.Path, r.Size, r.ModifiedDate))
	if len(w.buf) >= w.size {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered records in one transaction. On failure the
// batch is dropped and the error returned; retrying is up to the caller.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}

	start := time.Now()
	n := len(w.buf)
	first := w.buf[0].FullPath
	err := w.store.UpsertMany(ctx, w.buf)
	w.buf = w.buf[:0]

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.BatchFlushDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		logging.Error("Failed to write batch of %d records starting at %s: %v", n, first, err)
		return err
	}

	metrics.BatchSize.Observe(float64(n))
	w.batches++
	w.written += int64(n)
	return nil
}

// Pending returns the number of buffered records.
func (w *BatchWriter) Pending() int { return len(w.buf) }

// Batches returns the number of successful flushes.
func (w *BatchWriter) Batches() int { return w.batches }

// Written returns the number of records successfully written.
func (w *BatchWriter) Written() int64 { return w.written }
