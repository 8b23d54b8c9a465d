package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkSkipsGitignoredAndOversized(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nbuild/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.rs"), []byte("fn main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "debug.log"), []byte("noisy"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.rs"), []byte("fn x(){}"), 0o644))

	big := make([]byte, 100)
	require.NoError(t, os.WriteFile(filepath.Join(root, "tiny.rs"), big, 0o644))

	w, err := New(root, Options{MaxFileSize: 50})
	require.NoError(t, err)

	files, err := w.Walk()
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Contains(t, paths, "main.rs")
	require.NotContains(t, paths, "debug.log")
	require.NotContains(t, paths, "build/out.rs")
	require.NotContains(t, paths, "tiny.rs") // exceeds MaxFileSize of 50
}

func TestLooksBinary(t *testing.T) {
	require.False(t, looksBinary([]byte("fn main() {}\n")))
	require.True(t, looksBinary([]byte{0x00, 0x01, 0x02}))
	require.True(t, looksBinary([]byte{0xff, 0xfe, 0x00, 0x10}))
}

func TestWalkIsDeterministic(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.rs"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.rs"), []byte("a"), 0o644))

	w, err := New(root, Options{})
	require.NoError(t, err)

	files, err := w.Walk()
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.rs", files[0].Path)
	require.Equal(t, "b.rs", files[1].Path)
}
