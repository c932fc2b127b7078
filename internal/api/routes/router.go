package routes

import (
	"net/http"

	"github.com/agrisense/backend/internal/api/handlers"
	"github.com/agrisense/backend/internal/api/middleware"
	"github.com/agrisense/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	diagnosisHandler     *handlers.DiagnosisHandler
	healthHandler        *handlers.HealthHandler
	diseaseSearchHandler *handlers.DiseaseSearchHandler

	responseCache  *middleware.ResponseCache
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	diagnosisHandler *handlers.DiagnosisHandler,
	healthHandler *handlers.HealthHandler,
	diseaseSearchHandler *handlers.DiseaseSearchHandler,
	responseCache *middleware.ResponseCache,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                  http.NewServeMux(),
		diagnosisHandler:     diagnosisHandler,
		healthHandler:        healthHandler,
		diseaseSearchHandler: diseaseSearchHandler,
		responseCache:        responseCache,
		allowedOrigins:       allowedOrigins,
		metrics:              metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /{$}", r.healthHandler.Home)
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	r.mux.HandleFunc("POST /predict", r.diagnosisHandler.Predict)
	r.mux.HandleFunc("GET /disease_info/{name}", r.diagnosisHandler.DiseaseInfo)

	if r.diseaseSearchHandler != nil {
		r.mux.HandleFunc("GET /api/diseases/search", r.diseaseSearchHandler.Search)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	if r.responseCache != nil {
		handler = r.responseCache.Middleware(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
