package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/adapters/cache"
	"github.com/agrisense/backend/internal/api/middleware"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":0}`))
	})
}

func TestCORS_Preflight(t *testing.T) {
	calls := 0
	handler := middleware.CORS([]string{"*"})(okHandler(&calls))

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, 0, calls)
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	calls := 0
	handler := middleware.CORS([]string{"https://app.example.org", " https://admin.example.org"})(okHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://admin.example.org")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://admin.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Equal(t, 1, calls)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestResponseCache_CachesCatalogSearch(t *testing.T) {
	calls := 0
	handler := middleware.NewResponseCache(cache.NewMemoryAdapter()).Middleware(okHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/diseases/search?q=rust", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/diseases/search?q=rust", nil))

	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestResponseCache_SkipsOtherRoutes(t *testing.T) {
	calls := 0
	handler := middleware.NewResponseCache(cache.NewMemoryAdapter()).Middleware(okHandler(&calls))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/disease_info/Apple%20Scab", nil))
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/diseases/search", nil))
	assert.Equal(t, 3, calls)
}

func TestLoggingAndObservabilityPassThrough(t *testing.T) {
	handler := middleware.LoggingMiddleware(middleware.ObservabilityMiddleware(nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
