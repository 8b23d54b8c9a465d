package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteMetadataStoreFileLifecycle(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveProject(ctx, Project{ID: "p1", RootPath: "/tmp/p1", Name: "p1"}))
	got, err := db.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", got.Name)

	require.NoError(t, db.SaveFiles(ctx, []File{
		{ProjectID: "p1", Path: "a.rs", ContentHash: "h1", Size: 10},
	}))

	f, ok, err := db.GetFileByPath(ctx, "p1", "a.rs")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "h1", f.ContentHash)

	files, err := db.ListFiles(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, db.DeleteFile(ctx, "p1", "a.rs"))
	_, ok, err = db.GetFileByPath(ctx, "p1", "a.rs")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteMetadataStoreChunkLifecycle(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveChunks(ctx, []Chunk{
		{ID: "c1", ProjectID: "p1", FilePath: "a.rs", Content: "fn a(){}", SymbolName: "a"},
		{ID: "c2", ProjectID: "p1", FilePath: "a.rs", Content: "fn b(){}", SymbolName: "b"},
	}))

	chunks, err := db.GetChunksByFile(ctx, "p1", "a.rs")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	require.NoError(t, db.DeleteChunksByFile(ctx, "p1", "a.rs"))
	chunks, err = db.GetChunksByFile(ctx, "p1", "a.rs")
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestSQLiteMetadataStoreState(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.GetState(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.SetState(ctx, "last_run", "123"))
	v, ok, err := db.GetState(ctx, "last_run")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "123", v)
}
