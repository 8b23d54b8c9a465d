package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHNSWVectorStoreAddSearch(t *testing.T) {
	ctx := context.Background()
	s := NewHNSWVectorStore("", 4)
	defer s.Close()

	require.NoError(t, s.Add(ctx, "v1", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Add(ctx, "v2", []float32{0, 1, 0, 0}))

	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "v1", results[0].ID)
}

func TestHNSWVectorStoreDimensionMismatch(t *testing.T) {
	s := NewHNSWVectorStore("", 4)
	defer s.Close()
	err := s.Add(context.Background(), "v1", []float32{1, 0})
	require.Error(t, err)
}

func TestHNSWVectorStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/vectors.hnsw"

	s := NewHNSWVectorStore(path, 4)
	require.NoError(t, s.Add(ctx, "v1", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Add(ctx, "v2", []float32{0, 1, 0, 0}))
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	reloaded, err := LoadHNSWVectorStore(path, 4)
	require.NoError(t, err)
	defer reloaded.Close()

	require.Equal(t, 2, reloaded.Count())
	results, err := reloaded.Search(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "v1", results[0].ID)
}

func TestHNSWVectorStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewHNSWVectorStore("", 3)
	defer s.Close()

	require.NoError(t, s.Add(ctx, "v1", []float32{1, 0, 0}))
	require.Equal(t, 1, s.Count())
	require.NoError(t, s.Delete(ctx, "v1"))
	require.Equal(t, 0, s.Count())
}
