package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcpulse/internal/config"
)

// testConfig returns defaults with metrics off; the Prometheus exporter
// registers with the global registry and can only be created once per process.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Logging.Level = "error"
	cfg.Telemetry.MetricsEnabled = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := NewApplication(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if app.Services.Cache != nil {
			app.Services.Cache.Stop()
		}
	})
	return app
}

func serve(app *Application, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication_Wiring(t *testing.T) {
	app := newTestApp(t, testConfig())

	require.NotNil(t, app.Router)
	require.NotNil(t, app.Server)
	require.NotNil(t, app.Services.Analysis)
	require.NotNil(t, app.Services.Health)
	assert.NotNil(t, app.Services.Cache)
	assert.Equal(t, ":0", app.Server.Addr)
}

func TestNewApplication_InvalidDefaultChart(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.DefaultChart = "pareto"

	_, err := NewApplication(cfg)
	assert.Error(t, err)
}

func TestRouter_Endpoints(t *testing.T) {
	app := newTestApp(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"readiness", http.MethodGet, "/api/health/ready", "", http.StatusOK},
		{"version", http.MethodGet, "/api/version", "", http.StatusOK},
		{"constants", http.MethodGet, "/api/spc/constants/4", "", http.StatusOK},
		{"cache stats", http.MethodGet, "/api/cache/stats", "", http.StatusOK},
		{"analyze", http.MethodPost, "/api/spc/analyze", `{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]]}`, http.StatusCreated},
		{"metrics disabled", http.MethodGet, "/metrics", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/spc/constants", "{}", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouter_RejectsUnsupportedContentType(t *testing.T) {
	app := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/spc/analyze", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/health", "").Code)
}

func TestRouter_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false
	app := newTestApp(t, cfg)
	assert.Nil(t, app.Services.Cache)

	body := `{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]]}`
	rec := serve(app, http.MethodPost, "/api/spc/analyze", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Without a cache nothing can be looked up again.
	rec = serve(app, http.MethodGet, rec.Header().Get("Location"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	_, port, err := net.SplitHostPort(app.Addr())
	require.NoError(t, err)
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/api/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "alive", body["status"])

	require.NoError(t, app.Stop(context.Background()))

	_, err = client.Get(base + "/api/health")
	assert.Error(t, err)
}
