package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modditech/moddi-social/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	_, ok, err := s.Load(ctx, KeyUsers)
	require.NoError(t, err)
	assert.False(t, ok, "a never-saved key is absent, not an error")

	payload := []int64{1, 2, 3}
	data, err := MarshalSnapshot(payload)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, KeyUsers, data))

	got, ok, err := s.Load(ctx, KeyUsers)
	require.NoError(t, err)
	require.True(t, ok)

	var back []int64
	require.NoError(t, UnmarshalSnapshot(got, &back))
	assert.Equal(t, payload, back)
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	first, err := MarshalSnapshot("first")
	require.NoError(t, err)
	second, err := MarshalSnapshot("second")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, KeyPosts, first))
	require.NoError(t, s.Save(ctx, KeyPosts, second))

	data, ok, err := s.Load(ctx, KeyPosts)
	require.NoError(t, err)
	require.True(t, ok)

	var got string
	require.NoError(t, UnmarshalSnapshot(data, &got))
	assert.Equal(t, "second", got)
}

func TestUnmarshalSnapshotCorrupt(t *testing.T) {
	var out []int64
	err := UnmarshalSnapshot([]byte("{not json"), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistence, "corrupt stored JSON is a persistence failure, not a panic")

	err = UnmarshalSnapshot([]byte(`{"revision":"00000000-0000-0000-0000-000000000000","saved_at":"2024-01-01T00:00:00Z","data":"not-a-list"}`), &out)
	assert.ErrorIs(t, err, models.ErrPersistence)
}
