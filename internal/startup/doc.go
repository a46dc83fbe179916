// Package startup handles configuration loading and startup/shutdown
// logging.
//
// # Configuration
//
// [LoadConfig] resolves settings through viper in precedence order:
// command-line flags bound to the viper instance, environment variables,
// variables loaded from an optional .env file by [LoadDotEnv], the optional
// file-indexer.yaml config file, then defaults.
//
//   - DATABASE_PATH: SQLite index file (default: file_index.db)
//   - INDEX_WORKERS: scan worker count, 0 for automatic (default: 8)
//   - SCAN_MODE: streaming or batch (default: streaming)
//   - BATCH_SIZE: records per store transaction (default: 100)
//   - QUEUE_SIZE: streaming queue capacity (default: 1000)
//   - LOG_FILE: log file written alongside the console, empty to disable (default: file_indexer.log)
//   - LOG_LEVEL: debug, info, warn, error
//   - PORT: HTTP port for serve (default: 8080)
//   - METRICS_ENABLED: expose /metrics from serve (default: true)
//   - STALE_RETRIES: retries on stale NFS handles, 0 disables (default: 0)
//   - LOG_HEALTH_CHECKS: log /health requests (default: false)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [PrintBanner], [LogSystemInfo], [LogConfig], [LogDatabaseInit],
// [LogHTTPRoutes] and [LogServerStarted] print the startup sections;
// [LogShutdownInitiated] and friends cover graceful shutdown.
package startup
