package indexer

import (
	"errors"
	"fmt"

	"file-indexer/internal/database"
	"file-indexer/internal/filesystem"
)

// ErrSkipped marks an entry that could not be read. The wrapped error holds
// the underlying OS error.
var ErrSkipped = errors.New("entry skipped")

// ProbeResult is the metadata read for one file.
type ProbeResult struct {
	Name         string
	Path         string
	Size         int64
	ModifiedDate string
}

// Probe stats path and returns its size and local modification time.
// Any OS error, permission errors included, yields ErrSkipped. Nothing is
// logged here; callers count skips.
func Probe(name, path string, retry filesystem.RetryConfig) (ProbeResult, error) {
	info, err := filesystem.StatWithRetry(path, retry)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w", ErrSkipped, err)
	}

	return ProbeResult{
		Name:         name,
		Path:         path,
		Size:         info.Size(),
		ModifiedDate: info.ModTime().Local().Format(database.ModifiedDateLayout),
	}, nil
}
