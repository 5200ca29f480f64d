package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
	"github.com/roach88/dotrain/internal/meta"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/resolver"
	"github.com/roach88/dotrain/internal/testutil"
)

func TestPut_Get(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	payload := testutil.WordsPayload("add", "sub")

	h, err := s.Put(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, ir.ContentHash(payload), h)

	e, err := s.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, h, e.Hash)
	assert.Equal(t, meta.KindWords, e.Kind)
	assert.Equal(t, payload, e.Payload)
	assert.Equal(t, int64(1), e.Seq)
}

func TestPut_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	payload := testutil.DotrainPayload("#a 1")

	h1, err := s.Put(ctx, payload)
	require.NoError(t, err)
	h2, err := s.Put(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPut_RejectsCorrupt(t *testing.T) {
	s := createTestStore(t)
	payload := append(testutil.WordsPayload("add"), '\n')

	_, err := s.Put(context.Background(), payload)
	assert.ErrorIs(t, err, meta.ErrCorrupt)
}

func TestPut_AcceptsRaw(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	h, err := s.Put(ctx, []byte("opaque"))
	require.NoError(t, err)

	e, err := s.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, meta.KindRaw, e.Kind)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), ir.ContentHash([]byte("missing")))
	assert.ErrorIs(t, err, resolver.ErrNotFound)
}

func TestList_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var want []ir.Hash
	for _, text := range []string{"#c 3", "#a 1", "#b 2"} {
		h, err := s.Put(ctx, testutil.DotrainPayload(text))
		require.NoError(t, err)
		want = append(want, h)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, want[i], e.Hash)
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestList_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRegistry_AsCacheSource(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	h, err := s.Put(ctx, testutil.WordsPayload("add"))
	require.NoError(t, err)

	cache := metastore.New(metastore.Options{Sources: []resolver.Source{s}})
	got, err := cache.Update(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, h, ir.ContentHash(got))
	assert.Contains(t, s.Name(), "sqlite:")
}
