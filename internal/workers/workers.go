package workers

import (
	"runtime"
)

// DefaultScanWorkers is the scan pool size used when nothing is configured.
const DefaultScanWorkers = 8

// MaxScanWorkers caps automatically sized scan pools.
const MaxScanWorkers = 64

// Count returns a worker count of multiplier workers per available CPU.
// It respects container CPU limits via GOMAXPROCS.
//
// The limit parameter caps the result; use 0 for no limit.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// Stat calls against a network share spend nearly all their time waiting.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Resolve turns a configured worker count into the pool size for a scan.
// Positive values are used as is, 0 sizes the pool from the CPU count and
// negative values fall back to DefaultScanWorkers.
func Resolve(configured int) int {
	switch {
	case configured > 0:
		return configured
	case configured == 0:
		return ForIO(MaxScanWorkers)
	default:
		return DefaultScanWorkers
	}
}
