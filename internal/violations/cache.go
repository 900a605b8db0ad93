package violations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

// DiskCache хранит недоставленные нарушения между запусками агента.
// Формат файла - JSON-массив событий, без обертки: его читают и внешние
// утилиты. Файл ограничен по размеру: при переполнении вытесняются самые
// старые события.
type DiskCache struct {
	mu         sync.Mutex
	path       string
	maxEntries int
}

func NewDiskCache(path string, maxEntries int) *DiskCache {
	return &DiskCache{path: path, maxEntries: maxEntries}
}

// Load читает все сохраненные события. Отсутствие файла не является ошибкой.
func (c *DiskCache) Load() ([]entities.ViolationEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read violations cache: %w", err)
	}

	var events []entities.ViolationEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse violations cache: %w", err)
	}
	return events, nil
}

// Clear удаляет файл кеша
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove violations cache: %w", err)
	}
	return nil
}

// Append дописывает события к уже сохраненным, удерживая файл в пределах
// лимита за счет вытеснения самых старых записей
func (c *DiskCache) Append(events ...entities.ViolationEvent) error {
	if len(events) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var stored []entities.ViolationEvent
	if data, err := os.ReadFile(c.path); err == nil {
		// Нечитаемый кеш перезаписываем заново
		_ = json.Unmarshal(data, &stored)
	}

	stored = append(stored, events...)
	if len(stored) > c.maxEntries {
		stored = stored[len(stored)-c.maxEntries:]
	}

	return c.write(stored)
}

func (c *DiskCache) write(events []entities.ViolationEvent) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal violations cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write violations cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace violations cache: %w", err)
	}
	return nil
}
