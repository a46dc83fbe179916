package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"file-indexer/internal/filesystem"
	"file-indexer/internal/indexer"
	"file-indexer/internal/logging"
)

// ScanRequest is the body of POST /api/scan.
type ScanRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

// ScanProgressResponse reports the current or most recent scan.
type ScanProgressResponse struct {
	Running    bool                      `json:"running"`
	Progress   *indexer.ProgressSnapshot `json:"progress,omitempty"`
	LastResult *indexer.ScanResult       `json:"lastResult,omitempty"`
}

// StartScan handles POST /api/scan. The scan runs in the background;
// progress is available from GET /api/scan/progress.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	mode, err := indexer.ParseMode(req.Mode)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !filesystem.Exists(req.Path) {
		writeJSONError(w, "path not found", http.StatusNotFound)
		return
	}

	err = h.indexer.Start(h.ctx, req.Path, mode, func(res indexer.ScanResult, err error) {
		if err != nil {
			logging.Error("Background %s scan of %s failed: %v", res.Mode, res.Root, err)
		}
	})
	if errors.Is(err, indexer.ErrScanInProgress) {
		writeJSONError(w, "A scan is already running", http.StatusConflict)
		return
	}
	if err != nil {
		writeJSONError(w, "Failed to start scan", http.StatusInternalServerError)
		return
	}

	logging.Info("Started %s scan of %s via API", mode, req.Path)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"path":   req.Path,
		"mode":   string(mode),
	})
}

// GetScanProgress handles GET /api/scan/progress.
func (h *Handlers) GetScanProgress(w http.ResponseWriter, _ *http.Request) {
	resp := ScanProgressResponse{Running: h.indexer.IsRunning()}
	if snap, ok := h.indexer.Progress(); ok {
		resp.Progress = &snap
	}
	if last, ok := h.indexer.LastResult(); ok {
		resp.LastResult = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearIndex handles DELETE /api/index.
func (h *Handlers) ClearIndex(w http.ResponseWriter, r *http.Request) {
	n, err := h.indexer.Clear(r.Context())
	if errors.Is(err, indexer.ErrScanInProgress) {
		writeJSONError(w, "Cannot clear the index while a scan is running", http.StatusConflict)
		return
	}
	if err != nil {
		logging.Error("Clear failed: %v", err)
		writeJSONError(w, "Failed to clear the index", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
