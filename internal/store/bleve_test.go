package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBleveLexicalIndexSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenBleveLexicalIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.IndexBatch(ctx, []Document{
		{ID: "c1", DocType: "chunk", Content: "fn add_two_numbers(a: i32, b: i32) -> i32", FilePath: "a.rs"},
		{ID: "c2", DocType: "chunk", Content: "struct Point { x: i32, y: i32 }", FilePath: "b.rs"},
	}))

	results, err := idx.Search(ctx, "add_two_numbers", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "c1", results[0].ID)
}

func TestBleveLexicalIndexDeleteByFile(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenBleveLexicalIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.IndexBatch(ctx, []Document{
		{ID: "c1", DocType: "chunk", Content: "fn add(a: i32, b: i32) -> i32", FilePath: "a.rs"},
	}))
	require.NoError(t, idx.DeleteByFile(ctx, "a.rs"))

	results, err := idx.Search(ctx, "add", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}
