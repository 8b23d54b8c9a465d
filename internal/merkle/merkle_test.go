package merkle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphcode/glyph/internal/walker"
)

func files(pairs ...[2]string) []walker.File {
	out := make([]walker.File, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, walker.File{Path: p[0], ContentHash: p[1]})
	}
	return out
}

func TestBuildIsOrderIndependent(t *testing.T) {
	a := Build(files([2]string{"a.rs", "h1"}, [2]string{"b/c.rs", "h2"}))
	b := Build(files([2]string{"b/c.rs", "h2"}, [2]string{"a.rs", "h1"}))
	require.Equal(t, a.Root.Hash, b.Root.Hash)
}

func TestDiffDetectsAddModifyDelete(t *testing.T) {
	oldSnap := Build(files(
		[2]string{"a.rs", "h1"},
		[2]string{"b.rs", "h2"},
	))
	newSnap := Build(files(
		[2]string{"a.rs", "h1-changed"},
		[2]string{"c.rs", "h3"},
	))

	cs := Diff(oldSnap, newSnap)
	require.ElementsMatch(t, []string{"c.rs"}, cs.Added)
	require.ElementsMatch(t, []string{"a.rs"}, cs.Modified)
	require.ElementsMatch(t, []string{"b.rs"}, cs.Deleted)
}

func TestDiffPrunesUnchangedSubtree(t *testing.T) {
	oldSnap := Build(files([2]string{"dir/a.rs", "h1"}, [2]string{"dir/b.rs", "h2"}))
	newSnap := Build(files([2]string{"dir/a.rs", "h1"}, [2]string{"dir/b.rs", "h2"}))
	cs := Diff(oldSnap, newSnap)
	require.True(t, cs.Empty())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := Build(files([2]string{"a.rs", "h1"}))
	path := filepath.Join(t.TempDir(), "proj.snapshot")

	require.NoError(t, Save(path, snap))
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, snap.Root.Hash, loaded.Root.Hash)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.snapshot"))
	require.NoError(t, err)
	require.Nil(t, loaded)
}
