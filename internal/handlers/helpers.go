package handlers

import (
	"encoding/json"
	"net/http"

	"taskautomator/internal/validation"
)

// respondJSON sends a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError sends an {"error": ...} response. The message must already be
// safe to expose; internal failures go through respondInternalError instead.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}

// respondValidationError sends a 400 listing every violated field
func respondValidationError(w http.ResponseWriter, details []validation.FieldError) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation error",
		"details": details,
	})
}

// respondInternalError sends an opaque 500. The cause is logged by the
// caller, never echoed to the client.
func respondInternalError(w http.ResponseWriter) {
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
