package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbedIsDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	defer e.Close()

	a, err := e.Embed(context.Background(), "fn addTwoNumbers(a: i32, b: i32) -> i32")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "fn addTwoNumbers(a: i32, b: i32) -> i32")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, Dimensions)
}

func TestEmbedEmptyTextReturnsZeroVector(t *testing.T) {
	e := NewHashEmbedder()
	defer e.Close()

	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		require.Zero(t, x)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	e := NewHashEmbedder()
	defer e.Close()

	texts := []string{"alpha", "beta", "gamma"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, single, batch[i])
	}
}

func TestClosedEmbedderRejectsCalls(t *testing.T) {
	e := NewHashEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "anything")
	require.Error(t, err)
}
