/*
Package workers sizes the scan worker pool.

Scans are dominated by stat calls against possibly remote filesystems, so
automatic sizing uses two workers per available CPU (ForIO), capped at
MaxScanWorkers. GOMAXPROCS is used instead of runtime.NumCPU so container
CPU limits are respected.

	n := workers.Resolve(cfg.Workers) // 0 = auto, >0 = explicit

An explicit INDEX_WORKERS setting always wins; DefaultScanWorkers (8) is the
configured default.
*/
package workers
