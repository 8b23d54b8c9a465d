// Package walker enumerates a project tree, hashes file content and
// classifies files as text or binary. It is the leaf component of the
// indexing pipeline: everything downstream depends on the File records it
// produces.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/glyphcode/glyph/internal/gitignore"
)

// DefaultMaxFileSize is the size above which a file is skipped entirely
// rather than read and hashed.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// sniffWindow is the number of leading bytes inspected to classify a file
// as text or binary.
const sniffWindow = 8192

// blake3Threshold is the file size above which hashFile also feeds the file
// through BLAKE3 alongside SHA-256. The BLAKE3 digest is not recorded or
// used anywhere; the content hash on the File record (and consumed by the
// Merkle layer) is always SHA-256.
const blake3Threshold = 4 << 20 // 4 MiB

// File describes one file discovered by the walker.
type File struct {
	Path        string // relative to the walk root, slash-separated
	AbsPath     string
	Size        int64
	ModTime     int64
	ContentHash string // hex SHA-256 of file content
	IsBinary    bool
	IsSymlink   bool
}

// Options configures a walk.
type Options struct {
	MaxFileSize int64
	// IgnoreCache is reused across walks so repeated passes over an
	// unchanged subtree skip re-parsing .gitignore files.
	IgnoreCache *gitignore.Cache
}

// Walker enumerates files under a root directory.
type Walker struct {
	root string
	opts Options
}

// New builds a Walker rooted at root. A nil IgnoreCache causes one to be
// allocated internally.
func New(root string, opts Options) (*Walker, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.IgnoreCache == nil {
		cache, err := gitignore.NewCache(1000)
		if err != nil {
			return nil, fmt.Errorf("building ignore cache: %w", err)
		}
		opts.IgnoreCache = cache
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	return &Walker{root: abs, opts: opts}, nil
}

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	".glyph":       true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Walk enumerates all non-excluded, non-oversized files under the root,
// returning them sorted by path for deterministic downstream processing.
func (w *Walker) Walk() ([]File, error) {
	var files []File

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}

		if path == w.root {
			return nil
		}

		isDir := d.IsDir()
		if isDir && defaultExcludeDirs[d.Name()] {
			return filepath.SkipDir
		}

		dir := filepath.Dir(path)
		matcher, mErr := w.opts.IgnoreCache.Get(dir)
		if mErr == nil && matcher.Match(path, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}

		if isDir {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		isSymlink := info.Mode()&os.ModeSymlink != 0
		if isSymlink {
			// Symlinks are recorded but never followed or hashed.
			rel, _ := filepath.Rel(w.root, path)
			files = append(files, File{
				Path:      filepath.ToSlash(rel),
				AbsPath:   path,
				IsSymlink: true,
			})
			return nil
		}

		if info.Size() > w.opts.MaxFileSize {
			return nil
		}

		f, err := w.hashFile(path, info.Size())
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		rel, _ := filepath.Rel(w.root, path)
		f.Path = filepath.ToSlash(rel)
		f.AbsPath = path
		f.ModTime = info.ModTime().Unix()
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) hashFile(path string, size int64) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	sniff := make([]byte, sniffWindow)
	n, err := io.ReadFull(f, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return File{}, err
	}
	sniff = sniff[:n]
	binary := looksBinary(sniff)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return File{}, err
	}

	hash := sha256.New()
	if size > blake3Threshold {
		b3 := blake3.New()
		if _, err := io.Copy(io.MultiWriter(hash, b3), f); err != nil {
			return File{}, err
		}
	} else if _, err := io.Copy(hash, f); err != nil {
		return File{}, err
	}

	return File{
		Size:        size,
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
		IsBinary:    binary,
	}, nil
}

// looksBinary classifies a content sample as binary using three checks, in
// order: a NUL byte, a non-printable-control-character ratio above 30%, or
// invalid UTF-8.
func looksBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	control := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
	}
	if float64(control)/float64(len(sample)) > 0.30 {
		return true
	}
	return !utf8.Valid(sample)
}
