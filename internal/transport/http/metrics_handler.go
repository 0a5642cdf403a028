package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "spcpulse/internal/errors"
	"spcpulse/internal/services"
)

// MetricsHandler serves the Prometheus scrape endpoint and cache statistics
type MetricsHandler struct {
	prometheus   http.Handler
	cache        *services.ResultCache
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus and cache may
// be nil when metrics or caching are disabled.
func NewMetricsHandler(prometheus http.Handler, cache *services.ResultCache, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		cache:        cache,
		errorHandler: errorHandler,
	}
}

// RegisterRoutes registers the metrics routes
func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/metrics", h.GetMetrics)
	r.Get("/cache/stats", h.GetCacheStats)
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("metrics endpoint"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetCacheStats handles GET /api/cache/stats
func (h *MetricsHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		render.JSON(w, r, map[string]interface{}{"enabled": false})
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"enabled": true,
		"stats":   h.cache.Stats(),
	})
}
