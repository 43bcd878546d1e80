package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("MARGIN_COSTS_BACKEND", "memory")
	t.Setenv("MARGIN_PATHS_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("MARGIN_PATHS_REPORTS_DIR", filepath.Join(dir, "reports"))
	t.Setenv("MARGIN_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))
	t.Setenv("MARGIN_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))

	application, err := NewApplication(context.Background())
	require.NoError(t, err)
	return application
}

func TestNewApplication(t *testing.T) {
	application := newTestApplication(t)

	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Server)
	assert.NotNil(t, application.Services.Analysis)
	assert.NotNil(t, application.Services.Costs)
}

func TestRouterServesHealth(t *testing.T) {
	application := newTestApplication(t)

	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRouterServesMetrics(t *testing.T) {
	application := newTestApplication(t)

	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterNotFoundIsProblemJSON(t *testing.T) {
	application := newTestApplication(t)

	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}
