package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphcode/glyph/internal/chunk"
	"github.com/glyphcode/glyph/internal/embed"
	"github.com/glyphcode/glyph/internal/lang"
	"github.com/glyphcode/glyph/internal/store"
)

func newTestIndexer(t *testing.T, root string) (*Indexer, store.MetadataStore, store.VectorStore) {
	t.Helper()
	dataDir := t.TempDir()

	metadata, err := store.OpenSQLite(filepath.Join(dataDir, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { metadata.Close() })

	lexical, err := store.OpenBleveLexicalIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { lexical.Close() })

	embedder := embed.NewHashEmbedder()
	t.Cleanup(func() { embedder.Close() })

	vector := store.NewHNSWVectorStore("", embed.Dimensions)
	t.Cleanup(func() { vector.Close() })

	chunker := chunk.New(lang.NewParser(), chunk.DefaultOptions())

	ix := New(Config{
		ProjectID: "test-project",
		RootPath:  root,
		DataDir:   dataDir,
		Metadata:  metadata,
		Lexical:   lexical,
		Vector:    vector,
		Embedder:  embedder,
		Chunker:   chunker,
	})
	return ix, metadata, vector
}

func TestIndexerFirstPassIndexesAllFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte("pub fn add(a: i32, b: i32) -> i32 { a + b }\n"), 0o644))

	ix, metadata, vector := newTestIndexer(t, root)

	report, err := ix.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Added)
	require.NotZero(t, report.ChunksTotal)
	require.Empty(t, report.Failed)

	files, err := metadata.ListFiles(context.Background(), "test-project")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, report.ChunksTotal, vector.Count())
}

func TestIndexerSecondPassIsIdempotentOnUnchangedTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte("pub fn add(a: i32, b: i32) -> i32 { a + b }\n"), 0o644))

	ix, _, _ := newTestIndexer(t, root)

	_, err := ix.Run(context.Background(), false)
	require.NoError(t, err)

	report, err := ix.Run(context.Background(), false)
	require.NoError(t, err)
	require.Zero(t, report.Added)
	require.Zero(t, report.Modified)
	require.Zero(t, report.Deleted)
}

func TestIndexerDetectsModificationAndDeletion(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("pub fn add(a: i32, b: i32) -> i32 { a + b }\n"), 0o644))

	ix, metadata, _ := newTestIndexer(t, root)
	_, err := ix.Run(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("pub fn add(a: i32, b: i32) -> i32 { a + b + 1 }\n"), 0o644))
	report, err := ix.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Modified)

	require.NoError(t, os.Remove(path))
	report, err = ix.Run(context.Background(), false)
	require.NoError(t, err)
	require.Contains(t, report.Succeeded, "lib.rs")

	files, err := metadata.ListFiles(context.Background(), "test-project")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestIndexerForceReindexBypassesEarlyExit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte("pub fn add(a: i32, b: i32) -> i32 { a + b }\n"), 0o644))

	ix, _, _ := newTestIndexer(t, root)
	_, err := ix.Run(context.Background(), false)
	require.NoError(t, err)

	report, err := ix.Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, report.Modified)
}
