// Package logging provides the process-wide leveled logger used by the
// indexer, the store and the CLI.
//
// Levels, lowest first:
//   - DEBUG: verbose diagnostics (DEBUG=true or LOG_LEVEL=debug)
//   - INFO: scan lifecycle and summaries
//   - WARN: skipped folders and unreadable directories
//   - ERROR: failed batch writes and store errors
//
// Output goes to stderr and, after SetOutputFile, also to a log file.
package logging
