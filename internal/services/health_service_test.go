package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcpulse/internal/shared/testutil"
)

func TestHealthService(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cache := NewResultCache(time.Minute, 4, 0)
	t.Cleanup(cache.Stop)

	hs := NewHealthService("1.2.3", "2026-01-01T00:00:00Z", cache, logger)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		status := hs.HealthCheck(ctx)
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "1.2.3", status.Version)
	})

	t.Run("readiness", func(t *testing.T) {
		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "ready", status.Status)
		assert.Contains(t, status.Services, "engine")
		assert.Contains(t, status.Services, "cache")
	})

	t.Run("liveness", func(t *testing.T) {
		status := hs.LivenessCheck(ctx)
		assert.Equal(t, "alive", status.Status)
		assert.Contains(t, status.Runtime, "goroutines")
	})

	t.Run("version", func(t *testing.T) {
		info := hs.Version()
		assert.Equal(t, "1.2.3", info["version"])
		assert.Equal(t, "2026-01-01T00:00:00Z", info["build_time"])
		stats, ok := info["cache"].(CacheStats)
		require.True(t, ok)
		assert.Equal(t, 4, stats.MaxSize)
	})

	assert.True(t, handler.ContainsMessage("HealthService initialized"))
}

func TestHealthServiceWithoutCache(t *testing.T) {
	hs := NewHealthService("dev", "", nil, nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, ServiceHealth{Status: "ready", Message: "disabled"}, status.Services["cache"])

	info := hs.Version()
	assert.NotContains(t, info, "cache")
	assert.NotContains(t, info, "build_time")
}
