package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache(t *testing.T) {
	t.Parallel()

	cache := NewCache[string]("test", 100, time.Hour)

	assert.Equal(t, "test", cache.Name())
	assert.Equal(t, 0, cache.Size())
}

func TestCache_StoreAndLoad(t *testing.T) {
	t.Parallel()

	cache := NewCache[string]("test", 100, time.Hour)

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0600))

	fi, err := os.Stat(filePath)
	require.NoError(t, err)

	cache.Store(filePath, "test-data", fi)
	assert.Equal(t, 1, cache.Size())

	data, ok := cache.Load(filePath)
	assert.True(t, ok)
	assert.Equal(t, "test-data", data)

	_, ok = cache.Load("non-existent")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	cache := NewCache[string]("test", 100, time.Hour)

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0600))

	fi, err := os.Stat(filePath)
	require.NoError(t, err)

	cache.Store(filePath, "test-data", fi)
	cache.Invalidate(filePath)
	assert.Equal(t, 0, cache.Size())

	_, ok := cache.Load(filePath)
	assert.False(t, ok)
}

func TestCache_LoadLatest(t *testing.T) {
	t.Parallel()

	cache := NewCache[int]("test", 100, time.Hour)

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("v1"), 0600))

	loads := 0
	loader := func() (int, error) {
		loads++
		return loads, nil
	}

	// First call loads, second hits the cache.
	v, err := cache.LoadLatest(filePath, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = cache.LoadLatest(filePath, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, loads)

	// Changing the file content (and hence size) invalidates the entry.
	require.NoError(t, os.WriteFile(filePath, []byte("version2"), 0600))
	v, err = cache.LoadLatest(filePath, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCache_LoadLatestErrors(t *testing.T) {
	t.Parallel()

	cache := NewCache[int]("test", 100, time.Hour)

	t.Run("MissingFile", func(t *testing.T) {
		_, err := cache.LoadLatest(filepath.Join(t.TempDir(), "nope"), func() (int, error) {
			return 0, nil
		})
		assert.Error(t, err)
	})

	t.Run("LoaderError", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "test.txt")
		require.NoError(t, os.WriteFile(filePath, []byte("content"), 0600))

		wantErr := errors.New("parse failed")
		_, err := cache.LoadLatest(filePath, func() (int, error) {
			return 0, wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 0, cache.Size())
	})
}

func TestCache_CapacityLimit(t *testing.T) {
	t.Parallel()

	cache := NewCache[string]("test", 5, time.Hour)

	tmpDir := t.TempDir()
	for i := 0; i < 10; i++ {
		filePath := filepath.Join(tmpDir, "test"+string(rune('0'+i))+".txt")
		require.NoError(t, os.WriteFile(filePath, []byte("content"), 0600))

		fi, err := os.Stat(filePath)
		require.NoError(t, err)
		cache.Store(filePath, "data", fi)
	}

	assert.LessOrEqual(t, cache.Size(), 5)
}
