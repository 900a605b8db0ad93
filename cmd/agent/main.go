package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	cfg "github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/api"
	"github.com/clipsentry/screen-monitor-system/agent/internal/capture"
	"github.com/clipsentry/screen-monitor-system/agent/internal/core/ports"
	"github.com/clipsentry/screen-monitor-system/agent/internal/detector"
	"github.com/clipsentry/screen-monitor-system/agent/internal/handlers"
	"github.com/clipsentry/screen-monitor-system/agent/internal/usecases"
	"github.com/clipsentry/screen-monitor-system/agent/internal/violations"
	"github.com/clipsentry/screen-monitor-system/agent/internal/whitelist"
	"github.com/clipsentry/screen-monitor-system/agent/internal/workers"
	"github.com/clipsentry/screen-monitor-system/agent/pkg/clientid"
)

// Server timeout constants.
const (
	readTimeoutSeconds     = 15
	writeTimeoutSeconds    = 15
	idleTimeoutSeconds     = 60
	shutdownTimeoutSeconds = 5
)

func main() {
	// Устанавливаем timezone UTC
	time.Local = time.UTC

	// Parse configuration
	config, err := cfg.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging
	opts := &slog.HandlerOptions{
		Level: config.Log.Level,
	}
	if config.App.Debug {
		opts.Level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	logger.Info("Starting agent with configuration",
		"debug", config.App.Debug,
		"api_base_url", config.Server.APIBaseURL,
		"whitelist_enabled", config.Whitelist.Enabled,
		"clipboard_enabled", config.Clipboard.Enabled)

	// Постоянный идентификатор клиента
	clientID, err := clientid.LoadOrCreate(config.App.ClientIDFile)
	if err != nil {
		logger.Error("failed to obtain client id", "error", err)
		log.Fatal(err)
	}
	logger.Info("client identity ready", "client_id", clientID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Серверный клиент и классификатор
	serverClient := api.NewServerClient(logger, config, clientID)
	addressDetector := detector.NewDetector(detector.NewRegistry(), logger)

	// Белый список
	whitelistManager := whitelist.NewManager(logger, config, serverClient)

	// Репортер нарушений со скриншотами
	var screenshots ports.ScreenshotProvider
	if config.Screenshot.Enabled {
		screenshots = capture.NewScreenshotter(config.Screenshot.Quality)
	}
	reporter := violations.NewReporter(logger, config, serverClient, screenshots)

	// Конвейер обработки текста
	pipeline := usecases.NewViolationPipeline(logger, addressDetector, whitelistManager, reporter, clientID)

	// Воркеры
	clipboardMonitor := workers.NewClipboardMonitor(logger, config, capture.NewClipboard(), pipeline)
	heartbeatWorker := workers.NewHeartbeatWorker(logger, config, serverClient)
	commandListener := workers.NewCommandListener(logger, config, clientID, whitelistManager)

	var wg sync.WaitGroup
	runWorker := func(name string, run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("starting worker", "worker", name)
			run(ctx)
		}()
	}

	runWorker("whitelist_sync", whitelistManager.Run)
	runWorker("violation_reporter", reporter.Run)
	runWorker("clipboard_monitor", clipboardMonitor.Start)
	runWorker("heartbeat", heartbeatWorker.Start)
	runWorker("command_listener", commandListener.Start)

	// Локальный диагностический сервер
	var server *http.Server
	if config.Stats.Enabled {
		statsHandler := handlers.NewStatsHandler(logger, config, clientID,
			whitelistManager, reporter, clipboardMonitor)

		router := mux.NewRouter()
		statsHandler.RegisterRoutes(router)

		c := cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		})

		server = &http.Server{
			Addr:         config.Stats.Addr,
			Handler:      c.Handler(router),
			ReadTimeout:  readTimeoutSeconds * time.Second,
			WriteTimeout: writeTimeoutSeconds * time.Second,
			IdleTimeout:  idleTimeoutSeconds * time.Second,
		}

		go func() {
			logger.Info("Starting stats server", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Stats server error", "error", err)
			}
		}()
	}

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down agent...")

	// Останавливаем воркеров: репортер при остановке сбрасывает
	// недоставленные события в дисковый кеш
	cancel()
	wg.Wait()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Stats server forced to shutdown", "error", err)
		}
	}

	logger.Info("Agent exited properly")
}
