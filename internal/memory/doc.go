// Package memory sets the Go soft memory limit from the container memory
// limit (MEMORY_LIMIT, typically from the Kubernetes Downward API) so that
// large batch scans trigger garbage collection before the container is
// OOM-killed.
package memory
