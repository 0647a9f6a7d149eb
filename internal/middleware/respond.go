package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError uses the same {data, message, success} envelope as the handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"data":    nil,
		"message": message,
		"success": false,
	})
}
