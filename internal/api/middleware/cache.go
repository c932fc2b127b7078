package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/observability"
)

// ResponseCache stores successful GET responses for the configured paths.
// Prediction and disease info responses are never cached because they
// report their own cache state.
type ResponseCache struct {
	cache providers.CacheProvider
	ttls  map[string]time.Duration
}

// NewResponseCache creates a response cache for the catalog endpoints
func NewResponseCache(cache providers.CacheProvider) *ResponseCache {
	return &ResponseCache{
		cache: cache,
		ttls: map[string]time.Duration{
			"/api/diseases/search": 10 * time.Minute,
		},
	}
}

// Middleware returns the cache middleware handler
func (m *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		ttl, ok := m.ttls[r.URL.Path]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.LoggerFromContext(r.Context())
		key := responseCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			logger.Debug().Str("key", key).Msg("Response cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), key, recorder.body.Bytes(), int(ttl.Seconds())); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
			}
		}
	})
}

func responseCacheKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// responseRecorder tees the response body into a buffer
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
