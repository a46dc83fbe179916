// Package handlers provides the HTTP API of the file indexer.
//
// It includes handlers for:
//   - File, folder and extension search
//   - Index statistics
//   - Starting a background scan and polling its progress
//   - Clearing the index
//   - Health, version and Prometheus metrics
package handlers
