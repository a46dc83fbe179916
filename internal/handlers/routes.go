package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"file-indexer/internal/middleware"
)

// RouterConfig selects optional parts of the HTTP surface.
type RouterConfig struct {
	MetricsEnabled  bool
	LogHealthChecks bool
}

// Router builds the HTTP routes with logging, metrics and compression
// middleware applied.
func (h *Handlers) Router(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.LogHealthChecks = cfg.LogHealthChecks
	r.Use(middleware.Logger(logCfg))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Compression(middleware.DefaultCompressionConfig()))

	api.HandleFunc("/search", h.SearchFiles).Methods(http.MethodGet).Name("search")
	api.HandleFunc("/folders", h.SearchFolders).Methods(http.MethodGet).Name("folders")
	api.HandleFunc("/extension/{ext}", h.SearchByExtension).Methods(http.MethodGet).Name("extension")
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet).Name("stats")
	api.HandleFunc("/scan", h.StartScan).Methods(http.MethodPost).Name("scan")
	api.HandleFunc("/scan/progress", h.GetScanProgress).Methods(http.MethodGet).Name("scan-progress")
	api.HandleFunc("/index", h.ClearIndex).Methods(http.MethodDelete).Name("clear")
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	return r
}
