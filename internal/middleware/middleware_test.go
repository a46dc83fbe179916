package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"file-indexer/internal/metrics"
)

func TestResponseWriterWriteHeader(t *testing.T) {
	t.Parallel()

	rw := newResponseWriter(httptest.NewRecorder())
	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected first status code to stick, got %d", rw.statusCode)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	t.Parallel()

	rw := newResponseWriter(httptest.NewRecorder())
	data := []byte("test data")

	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(data) || rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected %d bytes written, got n=%d total=%d", len(data), n, rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"cr\rlf", "cr lf"},
		{"esc\x1b[31mred", "esc[31mred"},
		{"nul\x00byte", "nulbyte"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	cfg := DefaultLoggingConfig()
	tests := []struct {
		path string
		want bool
	}{
		{"/metrics", true},
		{"/health", true},
		{"/api/search", false},
	}
	for _, tt := range tests {
		if got := shouldSkip(tt.path, cfg); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	cfg.LogHealthChecks = true
	if shouldSkip("/health", cfg) {
		t.Error("Expected /health to be logged when LogHealthChecks is set")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.7:41000", "192.168.1.7"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Not parallel: redirects the standard logger.
func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(io.Discard)

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=report", nil)
	req.Header.Set("User-Agent", "curl/8.5.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"[HTTP]", "GET /api/search?q=report", " 418 ", "5B", `"curl/8.5.0"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected access line to contain %q, got %q", want, line)
		}
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("Expected health check to be skipped, got %q", buf.String())
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.Use(Metrics(DefaultMetricsConfig()))
	router.HandleFunc("/api/extension/{ext}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/extension/{ext}", "202")
	before := testutil.ToFloat64(counter)

	for _, ext := range []string{"pdf", "txt", "mp4"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/extension/"+ext, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("Expected 3 requests under the route template, got %v", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.Use(Metrics(DefaultMetricsConfig()))
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Errorf("Expected /health to be skipped, recorded %v", got)
	}
}

func TestCompressionMiddleware(t *testing.T) {
	t.Parallel()

	large := strings.Repeat(`{"filename":"report.pdf"},`, 100)

	tests := []struct {
		name         string
		acceptGzip   bool
		contentType  string
		body         string
		wantEncoding string
	}{
		{"large json", true, "application/json", large, "gzip"},
		{"small json", true, "application/json", `{"ok":true}`, ""},
		{"client without gzip", false, "application/json", large, ""},
		{"binary content", true, "application/octet-stream", large, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusCreated)
				// Two writes exercise buffering across the threshold.
				half := len(tt.body) / 2
				_, _ = w.Write([]byte(tt.body[:half]))
				_, _ = w.Write([]byte(tt.body[half:]))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip, deflate")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusCreated {
				t.Errorf("Expected status 201, got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Expected Content-Encoding %q, got %q", tt.wantEncoding, got)
			}

			body := rec.Body.Bytes()
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("Failed to open gzip body: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("Failed to read gzip body: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("Body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}
