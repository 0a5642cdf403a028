package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "spcpulse/internal/errors"
	"spcpulse/internal/services"
	"spcpulse/internal/shared/testutil"
)

func TestHealthHandler_Endpoints(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cache := services.NewResultCache(time.Minute, 8, 0)
	t.Cleanup(cache.Stop)

	handler := NewHealthHandler(services.NewHealthService("v1.0.0-test", "2026-01-01", cache, logger), logger)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	tests := []struct {
		name          string
		endpoint      string
		expectedField string
		expectedValue interface{}
	}{
		{"health", "/health", "status", "ok"},
		{"readiness", "/health/ready", "status", "ready"},
		{"liveness", "/health/live", "status", "alive"},
		{"version", "/version", "version", "v1.0.0-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.endpoint, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedValue, body[tt.expectedField])
		})
	}
}

func TestHealthHandler_VersionIncludesCache(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cache := services.NewResultCache(time.Minute, 8, 0)
	t.Cleanup(cache.Stop)

	handler := NewHealthHandler(services.NewHealthService("v1", "", cache, logger), logger)
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "cache")
	assert.NotContains(t, body, "build_time")
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("disabled metrics return 404", func(t *testing.T) {
		r := chi.NewRouter()
		NewMetricsHandler(nil, nil, errorHandler).RegisterRoutes(r)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
		assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())
	})

	t.Run("prometheus handler is served", func(t *testing.T) {
		prom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("spc_analyses_total 1\n"))
		})
		cache := services.NewResultCache(time.Minute, 4, 0)
		t.Cleanup(cache.Stop)

		r := chi.NewRouter()
		NewMetricsHandler(prom, cache, errorHandler).RegisterRoutes(r)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "spc_analyses_total")

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["enabled"])
		stats := body["stats"].(map[string]interface{})
		assert.EqualValues(t, 4, stats["max_size"])
	})
}
