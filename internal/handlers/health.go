package handlers

import (
	"net/http"
	"runtime"
	"time"

	"file-indexer/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Scanning bool   `json:"scanning"`
	Error    string `json:"error,omitempty"`

	TotalFiles   int64 `json:"totalFiles"`
	TotalFolders int64 `json:"totalFolders"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports whether the store answers queries. It returns 503
// when it does not.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Scanning:     h.indexer.IsRunning(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	stats, err := h.indexer.Stats(r.Context())
	if err != nil {
		resp.Status = statusUnhealthy
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.TotalFiles = stats.TotalFiles
	resp.TotalFolders = stats.TotalFolders
	writeJSON(w, http.StatusOK, resp)
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
