package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume2pdf/internal/config"
	"resume2pdf/internal/infra/chrome"
)

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, job chrome.Job) error {
	return os.WriteFile(job.OutputPath, []byte("%PDF-1.7\n%%EOF"), 0o600)
}

func (stubRenderer) Stats() chrome.Stats { return chrome.Stats{Mode: "stub", Enabled: true, Capacity: 1} }

func (stubRenderer) Close() error { return nil }

func minimalConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.PDF.TimeoutSecs = 1
	cfg.Workspace.BaseDir = t.TempDir()
	return cfg
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNew_RoutesAndJSON404(t *testing.T) {
	app := New(Deps{Config: minimalConfig(t), Renderer: stubRenderer{}})

	respStats, err := app.Test(httptest.NewRequest(http.MethodGet, StatsPath, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, respStats.StatusCode)
	assert.Equal(t, "stub", decode(t, respStats)["mode"])

	resp404, err := app.Test(httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp404.StatusCode)
	assert.Contains(t, resp404.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, map[string]interface{}{"error": "Not Found"}, decode(t, resp404))
}

func TestNew_InfoHealthAndMonitor(t *testing.T) {
	app := New(Deps{Config: minimalConfig(t), Renderer: stubRenderer{}})

	for _, path := range []string{"/", "/ops/health", "/ops/ready", MonitorPath} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestNew_ConvertEndToEnd(t *testing.T) {
	cfg := minimalConfig(t)
	app := New(Deps{Config: cfg, Renderer: stubRenderer{}})

	req := httptest.NewRequest(http.MethodPost, "/convert-to-pdf", strings.NewReader(`{"html":"<h1>Hi</h1>"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodPost, "/convert-to-pdf", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "HTML content is required"}, decode(t, resp))
}

func TestNew_DefaultsToLauncher(t *testing.T) {
	app := New(Deps{Config: minimalConfig(t)})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, StatsPath, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "per_request", decode(t, resp)["mode"])
}

func TestRedirectApp(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Server.TLS.HTTPSPort = ":3443"
	app := NewRedirectApp(cfg)

	req := httptest.NewRequest(http.MethodGet, "/convert-to-pdf?x=1", nil)
	req.Host = "pdf.example.com:4000"
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://pdf.example.com:3443/convert-to-pdf?x=1", resp.Header.Get("Location"))
}

func TestHTTPSURL(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Server.Domain = "fallback.example.com"

	cfg.Server.TLS.HTTPSPort = ":443"
	assert.Equal(t, "https://pdf.example.com/", httpsURL(cfg, "pdf.example.com:80", "/"))

	cfg.Server.TLS.HTTPSPort = ":3443"
	assert.Equal(t, "https://fallback.example.com:3443/a", httpsURL(cfg, "", "/a"))
	assert.Equal(t, "https://localhost:3443/", httpsURL(cfg, "localhost", "/"))
}
