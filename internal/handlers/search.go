package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"file-indexer/internal/database"
	"file-indexer/internal/logging"
)

// FileSearchResponse is returned by the file search endpoints.
type FileSearchResponse struct {
	Query   string               `json:"query"`
	Exact   bool                 `json:"exact"`
	Count   int                  `json:"count"`
	Results []database.FileMatch `json:"results"`
}

// FolderSearchResponse is returned by the folder search endpoint.
type FolderSearchResponse struct {
	Query   string                 `json:"query"`
	Exact   bool                   `json:"exact"`
	Count   int                    `json:"count"`
	Results []database.FolderMatch `json:"results"`
}

// SearchFiles handles GET /api/search?q=term&exact=bool.
func (h *Handlers) SearchFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	exact := queryBool(r, "exact")

	if query == "" {
		writeJSON(w, http.StatusOK, FileSearchResponse{Results: []database.FileMatch{}})
		return
	}

	results, err := h.indexer.Search(r.Context(), query, exact)
	if err != nil {
		logging.Error("File search for %q failed: %v", query, err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, FileSearchResponse{Query: query, Exact: exact, Count: len(results), Results: results})
}

// SearchFolders handles GET /api/folders?q=term&exact=bool.
func (h *Handlers) SearchFolders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	exact := queryBool(r, "exact")

	if query == "" {
		writeJSON(w, http.StatusOK, FolderSearchResponse{Results: []database.FolderMatch{}})
		return
	}

	results, err := h.indexer.SearchFolders(r.Context(), query, exact)
	if err != nil {
		logging.Error("Folder search for %q failed: %v", query, err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, FolderSearchResponse{Query: query, Exact: exact, Count: len(results), Results: results})
}

// SearchByExtension handles GET /api/extension/{ext}.
func (h *Handlers) SearchByExtension(w http.ResponseWriter, r *http.Request) {
	ext := database.NormalizeExtension(mux.Vars(r)["ext"])

	results, err := h.indexer.SearchByExtension(r.Context(), ext)
	if err != nil {
		logging.Error("Extension search for %q failed: %v", ext, err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, FileSearchResponse{Query: ext, Count: len(results), Results: results})
}

// GetStats handles GET /api/stats.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.indexer.Stats(r.Context())
	if err != nil {
		logging.Error("Stats query failed: %v", err)
		writeJSONError(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
