package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/config"
)

// HeartbeatSender сообщает серверу, что агент жив
type HeartbeatSender interface {
	SendHeartbeat(ctx context.Context) error
}

// HeartbeatWorker периодически отправляет heartbeat на сервер
type HeartbeatWorker struct {
	logger   *slog.Logger
	sender   HeartbeatSender
	enabled  bool
	interval time.Duration
}

func NewHeartbeatWorker(logger *slog.Logger, cfg *config.Config, sender HeartbeatSender) *HeartbeatWorker {
	return &HeartbeatWorker{
		logger:   logger,
		sender:   sender,
		enabled:  cfg.Heartbeat.Enabled,
		interval: time.Duration(cfg.Heartbeat.Interval) * time.Second,
	}
}

// Start запускает цикл отправки heartbeat. Первый heartbeat уходит сразу,
// чтобы сервер видел агента с момента запуска.
func (w *HeartbeatWorker) Start(ctx context.Context) {
	if !w.enabled {
		w.logger.Info("heartbeat disabled")
		return
	}

	w.logger.Info("starting heartbeat worker", "interval", w.interval.String())

	if err := w.sender.SendHeartbeat(ctx); err != nil {
		w.logger.Warn("initial heartbeat failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("heartbeat worker stopped")
			return
		case <-ticker.C:
			if err := w.sender.SendHeartbeat(ctx); err != nil {
				w.logger.Warn("heartbeat failed", "error", err)
			}
		}
	}
}
