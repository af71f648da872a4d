package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte("payload")
	require.NoError(t, store.Put(ctx, "b", payload))
	payload[0] = 'X'

	data, err := Get(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data), "store keeps its own copy")

	require.NoError(t, Upload(ctx, store, "a", strings.NewReader("streamed")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err := b.ReadAt(ctx, buf, 2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "reamed", string(buf[:n]))

	require.NoError(t, store.Delete(ctx, "a"))
	names, err = store.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, names)
}
