package whitelist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clipsentry/screen-monitor-system/agent/config"
	"github.com/clipsentry/screen-monitor-system/agent/internal/api"
	"github.com/clipsentry/screen-monitor-system/agent/internal/metrics"
	"github.com/clipsentry/screen-monitor-system/agent/internal/shared"
)

const cacheFormatVersion = "1.0"

// cacheFile описывает формат файла кеша белого списка на диске.
// last_update - epoch-время последней успешной синхронизации.
type cacheFile struct {
	Addresses  []string  `json:"addresses"`
	LastUpdate int64     `json:"last_update"`
	CreatedAt  time.Time `json:"created_at"`
	Version    string    `json:"version"`
}

// Fetcher получает актуальный белый список с сервера
type Fetcher interface {
	FetchActiveWhitelist(ctx context.Context, lastUpdate int64) (*api.WhitelistResponse, error)
}

// Stats - счетчики работы менеджера белого списка
type Stats struct {
	Enabled      bool      `json:"enabled"`
	Size         int       `json:"size"`
	Hits         uint64    `json:"hits"`
	Misses       uint64    `json:"misses"`
	Syncs        uint64    `json:"syncs"`
	SyncFailures uint64    `json:"syncFailures"`
	LastSyncAt   time.Time `json:"lastSyncAt"`
	Expired      bool      `json:"expired"`
}

// Manager хранит множество разрешенных адресов и периодически
// синхронизирует его с сервером. Все адреса хранятся в нормализованной
// форме (нижний регистр, без пробелов по краям).
type Manager struct {
	logger  *slog.Logger
	fetcher Fetcher

	enabled      bool
	syncInterval time.Duration
	cacheTTL     time.Duration
	cachePath    string

	mu         sync.RWMutex
	addresses  map[string]struct{}
	lastUpdate int64
	syncedAt   time.Time

	hits         atomic.Uint64
	misses       atomic.Uint64
	syncs        uint64
	syncFailures uint64
}

// NewManager создает менеджер белого списка и пытается поднять
// сохраненный кеш с диска. Устаревший кеш (старше TTL) отбрасывается.
func NewManager(logger *slog.Logger, cfg *config.Config, fetcher Fetcher) *Manager {
	m := &Manager{
		logger:       logger,
		fetcher:      fetcher,
		enabled:      cfg.Whitelist.Enabled,
		syncInterval: time.Duration(cfg.Whitelist.SyncInterval) * time.Second,
		cacheTTL:     time.Duration(cfg.Whitelist.CacheTTL) * time.Second,
		cachePath:    cfg.Whitelist.CacheFile,
		addresses:    make(map[string]struct{}),
	}

	if m.enabled {
		if err := m.loadCache(); err != nil {
			logger.Warn("whitelist cache not loaded", "error", err, "path", m.cachePath)
		}
	}

	return m
}

// IsWhitelisted проверяет, разрешен ли адрес. При выключенном белом списке
// любой адрес считается разрешенным. Просроченный кеш означает, что
// достоверного списка нет, и ни один адрес не считается разрешенным.
func (m *Manager) IsWhitelisted(address string) bool {
	if !m.enabled {
		return true
	}

	normalized := shared.NormalizeAddress(address)

	// Горячий путь: проверки идут на каждое срабатывание детектора,
	// поэтому блокировка только на чтение, счетчики - атомарные.
	m.mu.RLock()
	expired := m.syncedAt.IsZero() || time.Since(m.syncedAt) > m.cacheTTL
	_, ok := m.addresses[normalized]
	m.mu.RUnlock()

	if expired || !ok {
		m.misses.Add(1)
		metrics.WhitelistLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}

	m.hits.Add(1)
	metrics.WhitelistLookupsTotal.WithLabelValues("hit").Inc()
	return true
}

// Sync выполняет одну синхронизацию с сервером. При успехе множество
// адресов полностью замещается, при ошибке остается прежним.
func (m *Manager) Sync(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	m.mu.RLock()
	lastUpdate := m.lastUpdate
	m.mu.RUnlock()

	// Остановка воркера не должна обрывать уже начатую синхронизацию:
	// запрос идет на отвязанном контексте, его ограничивает таймаут
	// HTTP-клиента
	fetchCtx := context.WithoutCancel(ctx)

	resp, err := m.fetcher.FetchActiveWhitelist(fetchCtx, lastUpdate)
	if err != nil {
		m.mu.Lock()
		m.syncFailures++
		m.mu.Unlock()
		metrics.WhitelistSyncsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("whitelist sync failed: %w", err)
	}

	next := make(map[string]struct{}, len(resp.Data.Addresses))
	for _, address := range resp.Data.Addresses {
		normalized := shared.NormalizeAddress(address)
		if normalized == "" {
			continue
		}
		next[normalized] = struct{}{}
	}

	now := time.Now()

	m.mu.Lock()
	m.addresses = next
	m.lastUpdate = now.Unix()
	m.syncedAt = now
	m.syncs++
	m.mu.Unlock()
	metrics.WhitelistSyncsTotal.WithLabelValues("success").Inc()

	if err := m.saveCache(); err != nil {
		m.logger.Warn("failed to persist whitelist cache", "error", err)
	}

	m.logger.Info("whitelist synchronized",
		"addresses", len(next),
		"last_update", now.Unix())

	return nil
}

// ForceSync запускает внеочередную синхронизацию, например по команде сервера
func (m *Manager) ForceSync(ctx context.Context) bool {
	if err := m.Sync(ctx); err != nil {
		m.logger.Error("forced whitelist sync failed", "error", err)
		return false
	}
	return true
}

// Run - рабочий цикл периодической синхронизации.
// Первая синхронизация выполняется сразу при старте.
func (m *Manager) Run(ctx context.Context) {
	if !m.enabled {
		m.logger.Info("whitelist disabled, sync loop not started")
		return
	}

	if err := m.Sync(ctx); err != nil {
		m.logger.Error("initial whitelist sync failed", "error", err)
	}

	ticker := time.NewTicker(m.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("whitelist sync loop stopped")
			return
		case <-ticker.C:
			if err := m.Sync(ctx); err != nil {
				m.logger.Error("periodic whitelist sync failed", "error", err)
			}
		}
	}
}

// Stats возвращает снимок счетчиков менеджера
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expired := m.syncedAt.IsZero() || time.Since(m.syncedAt) > m.cacheTTL
	return Stats{
		Enabled:      m.enabled,
		Size:         len(m.addresses),
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
		Syncs:        m.syncs,
		SyncFailures: m.syncFailures,
		LastSyncAt:   m.syncedAt,
		Expired:      expired,
	}
}

func (m *Manager) loadCache() error {
	data, err := os.ReadFile(m.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read whitelist cache: %w", err)
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return fmt.Errorf("failed to parse whitelist cache: %w", err)
	}

	age := time.Since(cached.CreatedAt)
	if age > m.cacheTTL {
		m.logger.Info("discarding expired whitelist cache", "age", age.Round(time.Second))
		return nil
	}

	next := make(map[string]struct{}, len(cached.Addresses))
	for _, address := range cached.Addresses {
		normalized := shared.NormalizeAddress(address)
		if normalized == "" {
			continue
		}
		next[normalized] = struct{}{}
	}

	m.mu.Lock()
	m.addresses = next
	m.lastUpdate = cached.LastUpdate
	m.syncedAt = cached.CreatedAt
	m.mu.Unlock()

	m.logger.Info("whitelist cache loaded",
		"addresses", len(next),
		"age", age.Round(time.Second))

	return nil
}

func (m *Manager) saveCache() error {
	m.mu.RLock()
	cached := cacheFile{
		Addresses:  make([]string, 0, len(m.addresses)),
		LastUpdate: m.lastUpdate,
		CreatedAt:  m.syncedAt,
		Version:    cacheFormatVersion,
	}
	for address := range m.addresses {
		cached.Addresses = append(cached.Addresses, address)
	}
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal whitelist cache: %w", err)
	}

	// Пишем во временный файл, затем переименовываем, чтобы не оставить
	// полузаписанный кеш при аварийном завершении
	tmp := m.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write whitelist cache: %w", err)
	}
	if err := os.Rename(tmp, m.cachePath); err != nil {
		return fmt.Errorf("failed to replace whitelist cache: %w", err)
	}
	return nil
}
