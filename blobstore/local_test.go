package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "_system/config.json", []byte(`{"version":3}`)))

	data, err := store.Get(ctx, "_system/config.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":3}`, string(data))
}

func TestLocalStoreNotFound(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "doc", []byte("v1")))
	require.NoError(t, store.Put(ctx, "doc", []byte("v2")))

	data, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "doc", []byte("x")))
	require.NoError(t, store.Delete(ctx, "doc"))
	_, err := store.Get(ctx, "doc")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "doc"))
}

func TestLocalStoreList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	require.NoError(t, store.Put(ctx, "_system/config.json", []byte("a")))
	require.NoError(t, store.Put(ctx, "p000/seg", []byte("b")))

	names, err := store.List(ctx, "_system/")
	require.NoError(t, err)
	assert.Equal(t, []string{"_system/config.json"}, names)
}

func TestLocalStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	require.NoError(t, store.Put(ctx, "doc", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
	_, err = os.Stat(filepath.Join(dir, "doc"))
	require.NoError(t, err)
}
