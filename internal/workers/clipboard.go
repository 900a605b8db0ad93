package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/core/ports"
	"github.com/clipsentry/screen-monitor-system/agent/internal/shared"
)

// TextProcessor обрабатывает снимок текста и возвращает число
// поставленных в очередь нарушений
type TextProcessor interface {
	ProcessText(text string) int
}

// ClipboardMonitorStats - счетчики работы монитора буфера обмена
type ClipboardMonitorStats struct {
	Enabled   bool   `json:"enabled"`
	Checks    uint64 `json:"checks"`
	Changes   uint64 `json:"changes"`
	Queued    uint64 `json:"queued"`
	ReadFails uint64 `json:"readFails"`
}

// ClipboardMonitor периодически опрашивает буфер обмена и прогоняет
// новое содержимое через конвейер обработки нарушений
type ClipboardMonitor struct {
	logger    *slog.Logger
	source    ports.ClipboardSource
	processor TextProcessor

	enabled   bool
	interval  time.Duration
	maxLength int

	// Последнее обработанное содержимое, чтобы не обрабатывать
	// один и тот же текст на каждом тике
	lastText string

	checks    atomic.Uint64
	changes   atomic.Uint64
	queued    atomic.Uint64
	readFails atomic.Uint64
}

func NewClipboardMonitor(
	logger *slog.Logger,
	cfg *config.Config,
	source ports.ClipboardSource,
	processor TextProcessor,
) *ClipboardMonitor {
	return &ClipboardMonitor{
		logger:    logger,
		source:    source,
		processor: processor,
		enabled:   cfg.Clipboard.Enabled,
		interval:  time.Duration(cfg.Clipboard.CheckInterval) * time.Millisecond,
		maxLength: cfg.Clipboard.MaxContentLength,
	}
}

// Start запускает цикл опроса буфера обмена
func (m *ClipboardMonitor) Start(ctx context.Context) {
	if !m.enabled {
		m.logger.Info("clipboard monitoring disabled")
		return
	}

	m.logger.Info("starting clipboard monitor",
		"interval", m.interval.String(),
		"max_length", m.maxLength)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("clipboard monitor stopped")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *ClipboardMonitor) check(ctx context.Context) {
	m.checks.Add(1)

	text, err := m.source.ReadText(ctx)
	if err != nil {
		m.readFails.Add(1)
		m.logger.Debug("clipboard read failed", "error", err)
		return
	}

	if text == "" || text == m.lastText {
		return
	}
	m.lastText = text
	m.changes.Add(1)

	queued := m.processor.ProcessText(shared.Truncate(text, m.maxLength))
	m.queued.Add(uint64(queued))
}

// Stats возвращает снимок счетчиков монитора
func (m *ClipboardMonitor) Stats() ClipboardMonitorStats {
	return ClipboardMonitorStats{
		Enabled:   m.enabled,
		Checks:    m.checks.Load(),
		Changes:   m.changes.Load(),
		Queued:    m.queued.Load(),
		ReadFails: m.readFails.Load(),
	}
}
