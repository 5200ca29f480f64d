package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/meta"
)

func TestSetDotrain_BindsURI(t *testing.T) {
	s := newTestStore()

	h := s.SetDotrain("#a 1", "file:///a.rain", false)

	assert.Equal(t, meta.DotrainHash("#a 1"), h)
	got, ok := s.GetDotrainHash("file:///a.rain")
	require.True(t, ok)
	assert.Equal(t, h, got)
	uri, ok := s.GetDotrainURI(h)
	require.True(t, ok)
	assert.Equal(t, "file:///a.rain", uri)
	_, ok = s.Get(h)
	assert.True(t, ok)
}

func TestSetDotrain_EvictsOldText(t *testing.T) {
	s := newTestStore()
	old := s.SetDotrain("#a 1", "file:///a.rain", false)

	s.SetDotrain("#a 2", "file:///a.rain", false)

	_, ok := s.Get(old)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSetDotrain_KeepOld(t *testing.T) {
	s := newTestStore()
	old := s.SetDotrain("#a 1", "file:///a.rain", false)

	s.SetDotrain("#a 2", "file:///a.rain", true)

	_, ok := s.Get(old)
	assert.True(t, ok)
}

func TestSetDotrain_SharedHashNotEvicted(t *testing.T) {
	s := newTestStore()
	shared := s.SetDotrain("#a 1", "file:///a.rain", false)
	s.SetDotrain("#a 1", "file:///b.rain", false)

	s.SetDotrain("#a 2", "file:///a.rain", false)

	_, ok := s.Get(shared)
	assert.True(t, ok, "b.rain still references the old text")
	uri, ok := s.GetDotrainURI(shared)
	require.True(t, ok)
	assert.Equal(t, "file:///b.rain", uri)
}

func TestSetDotrain_SameTextIsNoop(t *testing.T) {
	s := newTestStore()
	h := s.SetDotrain("#a 1", "file:///a.rain", false)

	assert.Equal(t, h, s.SetDotrain("#a 1", "file:///a.rain", false))
	_, ok := s.Get(h)
	assert.True(t, ok)
}

func TestDeleteDotrain(t *testing.T) {
	s := newTestStore()
	h := s.SetDotrain("#a 1", "file:///a.rain", false)

	s.DeleteDotrain("file:///a.rain", false)

	_, ok := s.GetDotrainHash("file:///a.rain")
	assert.False(t, ok)
	_, ok = s.Get(h)
	assert.False(t, ok)

	// Unknown URIs are ignored.
	s.DeleteDotrain("file:///missing.rain", false)
}

func TestDeleteDotrain_KeepMeta(t *testing.T) {
	s := newTestStore()
	h := s.SetDotrain("#a 1", "file:///a.rain", false)

	s.DeleteDotrain("file:///a.rain", true)

	_, ok := s.Get(h)
	assert.True(t, ok)
	_, ok = s.GetDotrainURI(h)
	assert.False(t, ok)
}
