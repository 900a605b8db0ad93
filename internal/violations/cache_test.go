package violations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipsentry/screen-monitor-system/agent/internal/entities"
)

func TestDiskCacheLoadMissingFile(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "violations.json"), 10)

	events, err := c.Load()
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDiskCacheAppendAndClear(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "violations.json"), 10)

	require.NoError(t, c.Append(testEvent("e1")))
	require.NoError(t, c.Append(testEvent("e2")))

	events, err := c.Load()
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "e1", events[0].EventID)
	require.Equal(t, "e2", events[1].EventID)

	require.NoError(t, c.Clear())
	events, err = c.Load()
	require.NoError(t, err)
	require.Empty(t, events)

	// Повторная очистка отсутствующего файла не считается ошибкой
	require.NoError(t, c.Clear())
}

// Файл кеша - JSON-массив событий верхнего уровня, без обертки:
// формат читают внешние утилиты
func TestDiskCacheFileIsPlainArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "violations.json")
	c := NewDiskCache(path, 10)
	require.NoError(t, c.Append(testEvent("e1")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var events []entities.ViolationEvent
	require.NoError(t, json.Unmarshal(data, &events))
	require.Len(t, events, 1)
	require.Equal(t, "e1", events[0].EventID)
}

// При переполнении лимита вытесняются самые старые события
func TestDiskCacheEvictsOldest(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "violations.json"), 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, c.Append(testEvent(fmt.Sprintf("e%d", i))))
	}

	events, err := c.Load()
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "e3", events[0].EventID)
	require.Equal(t, "e5", events[2].EventID)
}
