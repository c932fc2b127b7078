package handlers

import (
	"encoding/json"
	"net/http"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, err error) {
	respondWithJSON(w, statusCode, map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}
