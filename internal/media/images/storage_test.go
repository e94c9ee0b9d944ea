package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	t.Run("creates subdirectory", func(t *testing.T) {
		tmpDir := t.TempDir()

		storage, err := NewStorage(tmpDir, "uploads")
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(filepath.Join(tmpDir, "uploads"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, filepath.Join(tmpDir, "uploads"), storage.Dir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewStorage("", "uploads")
		assert.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "base path cannot be empty")
	})

	t.Run("returns error for empty subdir", func(t *testing.T) {
		storage, err := NewStorage(t.TempDir(), "")
		assert.Error(t, err)
		assert.Nil(t, storage)
	})

	t.Run("creates nested directories if needed", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "path")
		_, err := NewStorage(nested, "uploads")
		require.NoError(t, err)
		assert.DirExists(t, filepath.Join(nested, "uploads"))
	})
}

func TestStorage_SaveGetDelete(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "uploads")
	require.NoError(t, err)

	data := []byte("fake image data")
	require.NoError(t, storage.Save("a.jpg", data))
	assert.True(t, storage.Exists("a.jpg"))
	assert.NoFileExists(t, storage.Path("a.jpg")+".tmp")

	got, err := storage.Get("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	hash, err := storage.Hash("a.jpg")
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	require.NoError(t, storage.Delete("a.jpg"))
	assert.False(t, storage.Exists("a.jpg"))

	// Deleting twice is fine.
	require.NoError(t, storage.Delete("a.jpg"))
}

func TestStorage_RejectsBadInput(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "uploads")
	require.NoError(t, err)

	assert.Error(t, storage.Save("", []byte("x")))
	assert.Error(t, storage.Save("a.jpg", nil))

	for _, name := range []string{"../escape.jpg", "sub/a.jpg", `sub\a.jpg`, "..", ".hidden"} {
		assert.Error(t, storage.Save(name, []byte("x")), name)
		assert.False(t, storage.Exists(name), name)
	}

	_, err = storage.Get("missing.jpg")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
