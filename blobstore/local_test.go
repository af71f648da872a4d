package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/abruijn/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "index.b000.kmr"
	data := []byte("hello world, this is a test blob")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names, "unfinished blob must not be listed")

	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, blobName))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	_, ok := blob.(Mappable)
	assert.True(t, ok)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "index.b001.kmr", []byte("x")))
	require.NoError(t, store.Put(ctx, "MANIFEST.json", []byte("{}")))

	names, err = store.List(ctx, "index.")
	require.NoError(t, err)
	require.Equal(t, []string{"index.b000.kmr", "index.b001.kmr"}, names)

	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName), "deleting twice is fine")

	_, err = store.Open(ctx, blobName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Abort(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	w, err := store.Create(ctx, "partial")
	require.NoError(t, err)
	_, _ = w.Write([]byte("abc"))

	err = Upload(ctx, store, "other", bytes.NewReader([]byte("ok")))
	require.NoError(t, err)

	require.NoError(t, w.(interface{ Abort() error }).Abort())
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "other", entries[0].Name())
}

func TestLocalStore_NonLocalFS(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	store := NewLocalStoreFS(tmpDir, ffs)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST.json")))
	data, err := Get(ctx, store, "CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST.json", string(data))

	ffs.AddRule("CURRENT", fs.Fault{FailOnOpen: true})
	_, err = store.Open(ctx, "CURRENT")
	assert.ErrorIs(t, err, fs.ErrInjected)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReadAllAndReader(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := bytes.Repeat([]byte("ACGT"), 1000)
	require.NoError(t, store.Put(ctx, "blob", data))

	b, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer b.Close()

	got, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	streamed, err := io.ReadAll(Reader(ctx, b))
	require.NoError(t, err)
	assert.Equal(t, data, streamed)
}
