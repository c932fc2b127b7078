package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/api/handlers"
)

type stubModelStatus struct {
	ready bool
}

func (s stubModelStatus) ModelReady(ctx context.Context) bool {
	return s.ready
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name  string
		model handlers.ModelStatus
		debug bool
		ready bool
	}{
		{name: "no model configured", model: nil, debug: true, ready: false},
		{name: "model not loaded", model: stubModelStatus{ready: false}, debug: false, ready: false},
		{name: "model ready", model: stubModelStatus{ready: true}, debug: true, ready: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewHealthHandler(tt.model, tt.debug)
			w := httptest.NewRecorder()

			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, tt.ready, body["model_ready"])
			assert.Equal(t, tt.debug, body["debug_mode"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestHealthHandler_Home(t *testing.T) {
	handler := handlers.NewHealthHandler(nil, false)
	w := httptest.NewRecorder()

	handler.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Plant Disease Detection API", body["message"])
	assert.Equal(t, "1.0", body["version"])
	endpoints := body["endpoints"].(map[string]interface{})
	assert.Contains(t, endpoints, "/predict")
	assert.Contains(t, endpoints, "/health")
	assert.Contains(t, endpoints, "/disease_info/<name>")
}

func TestHealthHandler_TimestampIsUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("WAT", 60*60)
	t.Cleanup(func() { time.Local = local })

	handler := handlers.NewHealthHandler(nil, false)
	w := httptest.NewRecorder()

	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	body := decodeBody(t, w)
	ts, ok := body["timestamp"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "Z"), "timestamp %q is not UTC", ts)
}
