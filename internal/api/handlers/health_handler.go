package handlers

import (
	"context"
	"net/http"
	"time"
)

// ModelStatus reports whether predictions come from the real classifier
type ModelStatus interface {
	ModelReady(ctx context.Context) bool
}

// HealthHandler serves the liveness and capability endpoints
type HealthHandler struct {
	model ModelStatus
	debug bool
	now   func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(model ModelStatus, debug bool) *HealthHandler {
	return &HealthHandler{
		model: model,
		debug: debug,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// HealthResponse is the body returned by GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	ModelReady bool      `json:"model_ready"`
	DebugMode  bool      `json:"debug_mode"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Timestamp:  h.now(),
		ModelReady: h.model != nil && h.model.ModelReady(r.Context()),
		DebugMode:  h.debug,
	})
}

// Home handles GET /
func (h *HealthHandler) Home(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Plant Disease Detection API",
		"version": "1.0",
		"endpoints": map[string]string{
			"/health":                 "GET - Health check",
			"/predict":                "POST - Upload image for disease prediction",
			"/disease_info/<name>":    "GET - Get information about a specific disease",
			"/api/diseases/search?q=": "GET - Search the supported disease labels",
		},
	})
}
