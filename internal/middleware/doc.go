// Package middleware provides HTTP middleware for the query API: access
// logging through the application logger, Prometheus request metrics keyed
// by route template, and gzip compression of large JSON responses.
package middleware
