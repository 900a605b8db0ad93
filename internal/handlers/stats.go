package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/violations"
	"github.com/clipsentry/screen-monitor-system/agent/internal/whitelist"
	"github.com/clipsentry/screen-monitor-system/agent/internal/workers"
	"github.com/clipsentry/screen-monitor-system/agent/pkg/sysinfo"
)

// Поставщики снимков статистики подсистем агента
type (
	WhitelistStatsProvider interface {
		Stats() whitelist.Stats
	}
	ReporterStatsProvider interface {
		Stats() violations.Stats
	}
	ClipboardStatsProvider interface {
		Stats() workers.ClipboardMonitorStats
	}
)

// statsResponse - полный снимок состояния агента для локальной диагностики
type statsResponse struct {
	App       appInfo                       `json:"app"`
	Host      sysinfo.Info                  `json:"host"`
	Whitelist whitelist.Stats               `json:"whitelist"`
	Queue     violations.Stats              `json:"queue"`
	Clipboard workers.ClipboardMonitorStats `json:"clipboard"`
}

type appInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	ClientID      string `json:"clientId"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// StatsHandler отдает состояние агента локальным инструментам диагностики
type StatsHandler struct {
	logger    *slog.Logger
	appName   string
	version   string
	clientID  string
	startedAt time.Time

	whitelist WhitelistStatsProvider
	reporter  ReporterStatsProvider
	clipboard ClipboardStatsProvider
}

func NewStatsHandler(
	logger *slog.Logger,
	cfg *config.Config,
	clientID string,
	whitelistStats WhitelistStatsProvider,
	reporterStats ReporterStatsProvider,
	clipboardStats ClipboardStatsProvider,
) *StatsHandler {
	return &StatsHandler{
		logger:    logger,
		appName:   cfg.App.Name,
		version:   cfg.App.Version,
		clientID:  clientID,
		startedAt: time.Now(),
		whitelist: whitelistStats,
		reporter:  reporterStats,
		clipboard: clipboardStats,
	}
}

// RegisterRoutes регистрирует маршруты диагностики
func (h *StatsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (h *StatsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	response := statsResponse{
		App: appInfo{
			Name:          h.appName,
			Version:       h.version,
			ClientID:      h.clientID,
			UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		},
		Host:      sysinfo.Collect(r.Context()),
		Whitelist: h.whitelist.Stats(),
		Queue:     h.reporter.Stats(),
		Clipboard: h.clipboard.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode stats response", "error", err)
	}
}

func (h *StatsHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
