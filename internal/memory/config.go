package memory

import (
	"math"
	"os"
	"runtime/debug"

	"github.com/dustin/go-humanize"

	"file-indexer/internal/logging"
)

// DefaultRatio is the share of the container memory limit given to the Go
// heap. The rest is left to SQLite and goroutine stacks.
const DefaultRatio = 0.85

// Result describes what Configure did.
type Result struct {
	// Configured indicates whether a soft memory limit is in effect.
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	// ContainerLimit is the container memory limit in bytes, 0 if unknown.
	ContainerLimit int64

	// GoMemLimit is the soft limit in bytes, 0 if none was set.
	GoMemLimit int64

	// Ratio is the ratio applied to ContainerLimit.
	Ratio float64
}

// Configure sets the Go soft memory limit to ratio of containerLimit.
// An explicit GOMEMLIMIT in the environment wins, and a zero
// containerLimit leaves the runtime default alone. Call it before a scan
// starts allocating.
func Configure(containerLimit int64, ratio float64) Result {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := Result{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	if containerLimit <= 0 {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured")
		return Result{Source: "none"}
	}

	limit, ratio := limitFor(containerLimit, ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		humanize.IBytes(uint64(limit)),
		ratio*100,
		humanize.IBytes(uint64(containerLimit)),
	)

	return Result{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     limit,
		Ratio:          ratio,
	}
}

// limitFor returns the heap limit for containerLimit and the ratio
// actually used. Ratios outside (0, 1] fall back to DefaultRatio.
func limitFor(containerLimit int64, ratio float64) (int64, float64) {
	if ratio <= 0 || ratio > 1 {
		if ratio != 0 {
			logging.Warn("Memory ratio %.2f out of range (0.0-1.0], using default %.2f", ratio, DefaultRatio)
		}
		ratio = DefaultRatio
	}
	return int64(float64(containerLimit) * ratio), ratio
}
