package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"file-indexer/internal/logging"
)

// responseWriter records the status code and body size for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths: []string{"/metrics"},
	}
}

const healthCheckPath = "/health"

// Logger returns middleware writing one access line per request through the
// application logger:
//
//	[HTTP] 10.0.0.5 GET /api/search?q=report 200 512B 3ms "curl/8.5.0"
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logging.Printf("[HTTP] %s", formatAccessLine(r, wrapped, time.Since(start)))
		})
	}
}

func formatAccessLine(r *http.Request, rw *responseWriter, elapsed time.Duration) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = "-"
	}

	var b strings.Builder
	b.WriteString(sanitizeLogField(clientIP(r)))
	b.WriteByte(' ')
	b.WriteString(sanitizeLogField(r.Method))
	b.WriteByte(' ')
	b.WriteString(sanitizeLogField(target))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(int64(rw.statusCode), 10))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(rw.bytesWritten, 10))
	b.WriteString("B ")
	b.WriteString(strconv.FormatInt(elapsed.Milliseconds(), 10))
	b.WriteString("ms \"")
	b.WriteString(strings.ReplaceAll(sanitizeLogField(ua), `"`, `'`))
	b.WriteByte('"')
	return b.String()
}

// sanitizeLogField drops control characters so request data cannot forge
// log lines or emit terminal escapes. Newlines become spaces.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return !config.LogHealthChecks && path == healthCheckPath
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
