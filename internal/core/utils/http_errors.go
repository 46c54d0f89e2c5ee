package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSONError answers a request rejected before it reached the
// JSON-RPC layer, such as a wrong HTTP method or an exhausted rate limit.
func WriteJSONError(w http.ResponseWriter, status int, msg string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error":  msg,
		"code":   status,
	})
}
