package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"spcpulse/internal/spc"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	cache     *ResultCache
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. cache may be nil when result
// caching is disabled.
func NewHealthService(version, buildTime string, cache *ResultCache, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.Bool("cache_enabled", cache != nil))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["engine"] = hs.checkEngineHealth()
	status.Services["cache"] = hs.checkCacheHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.cache != nil {
		result["cache"] = hs.cache.Stats()
	}
	return result
}

// checkEngineHealth runs the constants lookup across the supported range.
func (hs *HealthService) checkEngineHealth() ServiceHealth {
	for _, n := range spc.SupportedSubgroupSizes() {
		if _, err := spc.LookupConstants(n); err != nil {
			return ServiceHealth{Status: "error", Message: err.Error()}
		}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkCacheHealth() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "ready", Message: "disabled"}
	}
	stats := hs.cache.Stats()
	if stats.MaxSize > 0 && stats.Entries > stats.MaxSize {
		return ServiceHealth{Status: "degraded", Message: "cache over capacity"}
	}
	return ServiceHealth{Status: "ready"}
}
