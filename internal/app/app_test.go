package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/uonline/internal/api"
	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/logger"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/records"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/storage"
)

// setupTestApp creates a minimal Application backed by a temp-file database.
func setupTestApp(t *testing.T) *Application {
	t.Helper()

	db, err := storage.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()

	return &Application{
		cfg:      &config.Config{MetricsUsername: "prometheus"},
		logger:   logger.NewWithWriter("error", io.Discard),
		db:       db,
		metrics:  metrics.New(registry),
		registry: registry,
		searcher: search.NewClient(search.Config{}),
	}
}

func serve(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	router, err := app.newRouter(nil)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decodeBody(t, w)["status"])

	// Liveness does not depend on the database.
	require.NoError(t, app.db.Close())
	w = serve(t, router, http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheck_Healthy(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	_, _, err := app.db.SaveRecord(context.Background(), "软件工程", []storage.Course{{Name: "软件测试"}})
	require.NoError(t, err)

	router, err := app.newRouter(nil)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "sqlite", body["dialect"])

	rows, ok := body["rows"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, rows["learning_records"], 0)
	assert.InDelta(t, 0, rows["course_caches"], 0)

	features, ok := body["features"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, features["search"])
	assert.Equal(t, false, features["llm_extraction"])
	assert.Equal(t, false, features["snapshots"])
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	router, err := app.newRouter(nil)
	require.NoError(t, err)

	require.NoError(t, app.db.Close())

	w := serve(t, router, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "database unavailable", body["reason"])
}

func TestGetRowCounts_DatabaseClosed(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	require.NoError(t, app.db.Close())

	assert.Empty(t, app.getRowCounts(context.Background()))
}

func TestNewRouter_RequestID(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	router, err := app.newRouter(nil)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/livez")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Correlation-ID", "corr-456")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "corr-456", w.Header().Get("X-Request-ID"))
}

func TestNewRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	router, err := app.newRouter(nil)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/livez")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
}

func TestNewRouter_MetricsAuth(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.cfg.MetricsPassword = "secret123"
	router, err := app.newRouter(nil)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prometheus", "secret123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uonline_http_errors_total")
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.cfg.TrustedProxies = []string{"not-an-ip"}

	_, err := app.newRouter(nil)
	require.Error(t, err)
}

func TestNewRouter_MountsAPI(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	handler := api.NewHandler(api.HandlerConfig{
		Records: records.NewService(app.db, app.metrics),
		Metrics: app.metrics,
	})
	router, err := app.newRouter(handler)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/records")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}

func TestRecordRowCountMetrics(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	_, _, err := app.db.SaveRecord(context.Background(), "数据科学", []storage.Course{{Name: "统计学习"}})
	require.NoError(t, err)

	app.recordRowCountMetrics(context.Background())

	families, err := app.registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "uonline_rows" {
			continue
		}
		found = true
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "table" && label.GetValue() == "learning_records" {
					assert.InDelta(t, 1, metric.GetGauge().GetValue(), 0)
				}
			}
		}
	}
	assert.True(t, found, "uonline_rows should be registered")
}
