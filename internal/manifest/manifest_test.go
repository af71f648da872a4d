package manifest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hupe1980/abruijn/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Manifest {
	m := New(21, 2, true, 0xDEADBEEF)
	m.Compression = "lz4"
	m.Files = []BucketFile{
		{Bucket: 0, Kmers: "index.b000.kmr", Masks: "index.b000.ext", Count: 3, Offset: 0},
		{Bucket: 1, Kmers: "index.b001.kmr", Masks: "index.b001.ext", Count: 4, Offset: 3},
	}
	m.Total = 7
	return m
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(ctx, store)
			require.ErrorIs(t, err, ErrNotFound)

			m := sample()
			require.NoError(t, Save(ctx, store, m))
			assert.Equal(t, "go-json", m.Codec)

			cur, err := blobstore.Get(ctx, store, CurrentFileName)
			require.NoError(t, err)
			assert.Equal(t, FileName, string(cur))

			loaded, err := Load(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, m, loaded)
			assert.Equal(t, []string{"index.b000.kmr", "index.b000.ext", "index.b001.kmr", "index.b001.ext"}, loaded.Names())
		})
	}
}

func TestLoad_IncompatibleVersion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, Save(ctx, store, sample()))

	data, err := blobstore.Get(ctx, store, FileName)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["version"] = 999
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, FileName, data))

	_, err = Load(ctx, store)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Manifest)
	}{
		{"missing bucket", func(m *Manifest) { m.Files = m.Files[:1] }},
		{"bad offset", func(m *Manifest) { m.Files[1].Offset = 2 }},
		{"bad order", func(m *Manifest) { m.Files[0].Bucket, m.Files[1].Bucket = 1, 0 }},
		{"bad total", func(m *Manifest) { m.Total = 8 }},
		{"bad k", func(m *Manifest) { m.K = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sample()
			tt.mutate(m)
			assert.ErrorIs(t, m.Validate(), ErrInvalid)
		})
	}
	require.NoError(t, sample().Validate())
}

func TestLoad_DanglingCurrent(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, CurrentFileName, []byte("MANIFEST-missing.json\n")))
	_, err := Load(ctx, store)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, CurrentFileName, []byte(" ")))
	_, err = Load(ctx, store)
	assert.ErrorIs(t, err, ErrInvalid)
}
