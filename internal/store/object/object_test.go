package object_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/kode4food/bizunit/internal/store/object"
)

func newStore(t *testing.T) *object.BlobStore {
	t.Helper()
	st := object.NewBlob(memblob.OpenBucket(nil), "objects/")
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestReadWrite(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "greeting.txt", []byte("hello")))
	data, err := st.Read(ctx, "greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestReadMissing(t *testing.T) {
	st := newStore(t)
	_, err := st.Read(context.Background(), "nope")
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestExistsDelete(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "a", []byte("1")))
	ok, err := st.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "in/one", []byte("1")))
	require.NoError(t, st.Write(ctx, "in/two", []byte("2")))
	require.NoError(t, st.Write(ctx, "out/three", []byte("3")))

	keys, err := st.List(ctx, "in/")
	require.NoError(t, err)
	assert.Equal(t, []string{"in/one", "in/two"}, keys)
}

func TestEmptyKey(t *testing.T) {
	st := newStore(t)
	err := st.Write(context.Background(), "", nil)
	assert.ErrorIs(t, err, object.ErrKeyEmpty)
}
