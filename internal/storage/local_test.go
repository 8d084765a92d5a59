package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutMovesArchiveAndWritesMetadata(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalArchiveStore(root)
	require.NoError(t, err)

	staged := filepath.Join(t.TempDir(), "lidl.zip")
	require.NoError(t, os.WriteFile(staged, []byte("zip-bytes"), 0644))

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	path, err := store.Put(context.Background(), date, "lidl", staged)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2025-07-02", "lidl.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))

	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "staged file must be moved, not copied")

	info, err := store.Info(context.Background(), date, "lidl")
	require.NoError(t, err)
	assert.Equal(t, "lidl", info.Chain)
	assert.Equal(t, "2025-07-02", info.Date)
	assert.Equal(t, int64(len("zip-bytes")), info.Size)
	assert.Len(t, info.Checksum, 64)
}

func TestExists(t *testing.T) {
	store, err := NewLocalArchiveStore(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	ok, err := store.Exists(context.Background(), date, "konzum")
	require.NoError(t, err)
	assert.False(t, ok)

	staged := filepath.Join(t.TempDir(), "konzum.zip")
	require.NoError(t, os.WriteFile(staged, []byte("x"), 0644))
	_, err = store.Put(context.Background(), date, "konzum", staged)
	require.NoError(t, err)

	ok, err = store.Exists(context.Background(), date, "konzum")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListReturnsOnlyArchivesForDate(t *testing.T) {
	store, err := NewLocalArchiveStore(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 1)

	for _, chain := range []string{"spar", "lidl"} {
		staged := filepath.Join(t.TempDir(), chain+".zip")
		require.NoError(t, os.WriteFile(staged, []byte(chain), 0644))
		_, err := store.Put(context.Background(), date, chain, staged)
		require.NoError(t, err)
	}

	paths, err := store.List(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "lidl.zip", filepath.Base(paths[0]))
	assert.Equal(t, "spar.zip", filepath.Base(paths[1]))

	empty, err := store.List(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInfoWithoutSidecarRecomputes(t *testing.T) {
	store, err := NewLocalArchiveStore(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	staged := filepath.Join(t.TempDir(), "dm.zip")
	require.NoError(t, os.WriteFile(staged, []byte("payload"), 0644))
	path, err := store.Put(context.Background(), date, "dm", staged)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path+".meta"))

	info, err := store.Info(context.Background(), date, "dm")
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), info.Size)
	assert.Len(t, info.Checksum, 64)
}
