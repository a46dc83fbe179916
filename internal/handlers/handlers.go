package handlers

import (
	"context"
	"time"

	"file-indexer/internal/indexer"
)

// Handlers serves the query API over one Indexer.
type Handlers struct {
	// ctx bounds scans started over HTTP; canceling it stops them.
	ctx       context.Context
	indexer   *indexer.Indexer
	startTime time.Time
}

// New creates the handlers. Background scans inherit ctx.
func New(ctx context.Context, idx *indexer.Indexer) *Handlers {
	return &Handlers{
		ctx:       ctx,
		indexer:   idx,
		startTime: time.Now(),
	}
}
