package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/violations"
	"github.com/clipsentry/screen-monitor-system/agent/internal/whitelist"
	"github.com/clipsentry/screen-monitor-system/agent/internal/workers"
)

type stubWhitelistStats struct{}

func (stubWhitelistStats) Stats() whitelist.Stats {
	return whitelist.Stats{Enabled: true, Size: 42, Hits: 7}
}

type stubReporterStats struct{}

func (stubReporterStats) Stats() violations.Stats {
	return violations.Stats{QueueLength: 3, QueueCap: 1000, Delivered: 12}
}

type stubClipboardStats struct{}

func (stubClipboardStats) Stats() workers.ClipboardMonitorStats {
	return workers.ClipboardMonitorStats{Enabled: true, Checks: 100, Changes: 5}
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Name = "screen-monitor-agent"
	cfg.App.Version = "1.0.0-test"

	h := NewStatsHandler(slog.Default(), cfg, "client-123",
		stubWhitelistStats{}, stubReporterStats{}, stubClipboardStats{})

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "screen-monitor-agent", response.App.Name)
	require.Equal(t, "client-123", response.App.ClientID)
	require.Equal(t, 42, response.Whitelist.Size)
	require.Equal(t, 3, response.Queue.QueueLength)
	require.Equal(t, uint64(100), response.Clipboard.Checks)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
