package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("analysis started", slog.String("chart_type", "xr"))
		logger.Error("analysis failed", slog.Int("code", 422))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("started"))
		assert.True(t, handler.ContainsAttr("chart_type", "xr"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "spc_analyzer").Info("tagged")
		logger.WithGroup("req").Info("grouped", "id", "abc")

		AssertLogAttr(t, handler, "component", "spc_analyzer")
		AssertLogAttr(t, handler, "req.id", "abc")
		AssertLogContains(t, handler, slog.LevelInfo, "tagged")
		AssertNoErrors(t, handler)
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent", slog.Int("worker", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}
