package violations

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/core/ports"
	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
	"github.com/clipsentry/screen-monitor-system/agent/internal/metrics"
)

// Максимальная пауза между повторными доставками
const maxBackoff = 30 * time.Second

// Sender доставляет событие нарушения на сервер
type Sender interface {
	ReportViolation(ctx context.Context, event entities.ViolationEvent, screenshot []byte) error
}

// Stats - счетчики работы репортера
type Stats struct {
	QueueLength int    `json:"queueLength"`
	QueueCap    int    `json:"queueCap"`
	Submitted   uint64 `json:"submitted"`
	Dropped     uint64 `json:"dropped"`
	Delivered   uint64 `json:"delivered"`
	Failed      uint64 `json:"failed"`
	Cached      uint64 `json:"cached"`
}

// Reporter принимает события нарушений через ограниченную очередь и
// доставляет их на сервер с повторами. События, которые не удалось
// доставить, переживают перезапуск агента в дисковом кеше.
type Reporter struct {
	logger      *slog.Logger
	client      Sender
	screenshots ports.ScreenshotProvider
	cache       *DiskCache

	queue      chan entities.ViolationEvent
	maxRetries int
	retryDelay time.Duration

	submitted atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	cached    atomic.Uint64
}

// NewReporter создает репортер и поднимает недоставленные события из
// дискового кеша обратно в очередь. Провайдер скриншотов может быть nil,
// тогда нарушения отправляются без снимка экрана.
func NewReporter(logger *slog.Logger, cfg *config.Config, client Sender, screenshots ports.ScreenshotProvider) *Reporter {
	r := &Reporter{
		logger:      logger,
		client:      client,
		screenshots: screenshots,
		cache:       NewDiskCache(cfg.Violations.CacheFile, cfg.Violations.MaxCached),
		queue:       make(chan entities.ViolationEvent, cfg.Violations.QueueSize),
		maxRetries:  cfg.Server.MaxRetries,
		retryDelay:  time.Duration(cfg.Server.RetryDelay) * time.Second,
	}

	r.restoreCached()
	return r
}

// Submit ставит событие в очередь доставки. Вызов никогда не блокируется:
// при заполненной очереди событие отбрасывается и возвращается false.
func (r *Reporter) Submit(event entities.ViolationEvent) bool {
	select {
	case r.queue <- event:
		r.submitted.Add(1)
		metrics.ViolationsSubmittedTotal.Inc()
		return true
	default:
		r.dropped.Add(1)
		metrics.ViolationsDroppedTotal.Inc()
		r.logger.Warn("violation queue full, event dropped", "event_id", event.EventID)
		return false
	}
}

// Run - рабочий цикл доставки. При остановке контекста очередь
// сбрасывается в дисковый кеш.
func (r *Reporter) Run(ctx context.Context) {
	for {
		// Остановка имеет приоритет над разбором очереди
		select {
		case <-ctx.Done():
			r.flush()
			return
		default:
		}

		select {
		case <-ctx.Done():
			r.flush()
			return
		case event := <-r.queue:
			r.deliver(ctx, event)
		}
	}
}

// Stats возвращает снимок счетчиков репортера
func (r *Reporter) Stats() Stats {
	return Stats{
		QueueLength: len(r.queue),
		QueueCap:    cap(r.queue),
		Submitted:   r.submitted.Load(),
		Dropped:     r.dropped.Load(),
		Delivered:   r.delivered.Load(),
		Failed:      r.failed.Load(),
		Cached:      r.cached.Load(),
	}
}

// deliver выполняет серию попыток доставки одного события.
// После исчерпания попыток событие возвращается в очередь, а при
// заполненной очереди уходит в дисковый кеш.
func (r *Reporter) deliver(ctx context.Context, event entities.ViolationEvent) {
	// Событие, уже пережившее неудачный цикл, выдерживает паузу
	// перед следующим
	if event.DeliveryAttempts > 0 {
		if !r.sleep(ctx, r.backoff(event.DeliveryAttempts)) {
			r.stash(event)
			return
		}
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			if !r.sleep(ctx, r.backoff(event.DeliveryAttempts)) {
				r.stash(event)
				return
			}
		}

		// Скриншот снимается в момент отправки
		screenshot := r.captureScreenshot(ctx)

		started := time.Now()
		err := r.client.ReportViolation(ctx, event, screenshot)
		metrics.DeliveryLatency.Observe(time.Since(started).Seconds())

		if err == nil {
			r.delivered.Add(1)
			metrics.ViolationsDeliveredTotal.Inc()
			return
		}

		event.DeliveryAttempts++
		r.logger.Warn("violation delivery failed",
			"event_id", event.EventID,
			"attempt", event.DeliveryAttempts,
			"error", err)

		if ctx.Err() != nil {
			r.stash(event)
			return
		}
	}

	r.failed.Add(1)
	metrics.ViolationsFailedTotal.Inc()

	select {
	case r.queue <- event:
	default:
		r.stash(event)
	}
}

// backoff возвращает экспоненциально растущую паузу с верхней границей
func (r *Reporter) backoff(attempts int) time.Duration {
	delay := r.retryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

// sleep ждет указанное время, возвращает false при отмене контекста
func (r *Reporter) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Reporter) captureScreenshot(ctx context.Context) []byte {
	if r.screenshots == nil {
		return nil
	}
	data, err := r.screenshots.Capture(ctx)
	if err != nil {
		r.logger.Warn("screenshot capture failed", "error", err)
		return nil
	}
	return data
}

// stash сохраняет событие в дисковый кеш
func (r *Reporter) stash(events ...entities.ViolationEvent) {
	if len(events) == 0 {
		return
	}
	if err := r.cache.Append(events...); err != nil {
		r.logger.Error("failed to cache violations", "error", err, "count", len(events))
		return
	}
	r.cached.Add(uint64(len(events)))
	metrics.ViolationsCachedTotal.Add(float64(len(events)))
}

// flush сбрасывает остаток очереди в дисковый кеш при остановке
func (r *Reporter) flush() {
	var pending []entities.ViolationEvent
	for {
		select {
		case event := <-r.queue:
			pending = append(pending, event)
		default:
			if len(pending) > 0 {
				r.logger.Info("flushing undelivered violations to disk", "count", len(pending))
			}
			r.stash(pending...)
			return
		}
	}
}

// restoreCached поднимает сохраненные события с диска обратно в очередь.
// Файл кеша очищается: все, что не поместилось в очередь, сразу
// возвращается на диск.
func (r *Reporter) restoreCached() {
	events, err := r.cache.Load()
	if err != nil {
		r.logger.Warn("failed to load violations cache", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}
	if err := r.cache.Clear(); err != nil {
		r.logger.Warn("failed to clear violations cache", "error", err)
	}

	var overflow []entities.ViolationEvent
	for _, event := range events {
		select {
		case r.queue <- event:
		default:
			overflow = append(overflow, event)
		}
	}
	r.stash(overflow...)

	r.logger.Info("restored cached violations",
		"queued", len(events)-len(overflow),
		"overflow", len(overflow))
}
