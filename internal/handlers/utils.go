package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"file-indexer/internal/logging"
)

// writeJSON writes v as a JSON response with the given status code.
// Encoding errors are logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// queryBool parses a boolean query parameter, treating absent or invalid
// values as false.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
