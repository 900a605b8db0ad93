package clientid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_id")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err, "идентификатор должен быть валидным UUID")

	// Повторный вызов возвращает тот же идентификатор
	second, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrCreateRegeneratesCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_id")
	require.NoError(t, os.WriteFile(path, []byte("not-a-uuid"), 0o600))

	id, err := LoadOrCreate(path)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	require.NotEqual(t, "not-a-uuid", id)
}
