package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.bkt")
	f, err := Create(lfs, fpath)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	data, err := ReadFile(lfs, fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, lfs.Remove(fpath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MANIFEST.json")
	require.NoError(t, WriteFile(Default, path, []byte("v1")))
	require.NoError(t, WriteFile(Default, path, []byte("v2")))

	data, err := ReadFile(Default, path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMatching(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"kp1.s000.b001.r0000.run", "kp1.b001.bkt", "index.b001.kmr"} {
		require.NoError(t, WriteFile(Default, filepath.Join(dir, name), []byte("x")))
	}
	require.NoError(t, RemoveMatching(Default, dir, "kp1.*"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.b001.kmr", entries[0].Name())
}

func TestFaultyFSWriteLimit(t *testing.T) {
	ffs := NewFaultyFS(LocalFS{})
	ffs.SetLimit(5)

	f, err := Create(ffs, filepath.Join(t.TempDir(), "faulty.txt"))
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, int64(5), ffs.Written())
}

func TestFaultyFSRules(t *testing.T) {
	dir := t.TempDir()
	custom := errors.New("disk full")
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".bkt", Fault{FailAfterBytes: 2, Err: custom})
	ffs.AddRule(".ext", Fault{FailOnOpen: true})
	ffs.AddRule(".kmr", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnClose: true})

	f, err := Create(ffs, filepath.Join(dir, "k.b000.bkt"))
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	assert.ErrorIs(t, err, custom)
	require.NoError(t, f.Close())

	_, err = Create(ffs, filepath.Join(dir, "index.b000.ext"))
	assert.ErrorIs(t, err, ErrInjected)

	f, err = Create(ffs, filepath.Join(dir, "index.b000.kmr"))
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	assert.ErrorIs(t, f.Close(), ErrInjected)

	assert.Error(t, WriteFile(ffs, filepath.Join(dir, "x.kmr"), []byte("x")))
	_, err = os.Stat(filepath.Join(dir, "x.kmr.tmp"))
	assert.True(t, os.IsNotExist(err))
}
