package mcp

import (
	"context"
	"os"
	"path/filepath"

	"github.com/glyphcode/glyph/internal/gitignore"
	"github.com/glyphcode/glyph/internal/structural"
	"github.com/glyphcode/glyph/internal/walker"
)

func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.rootPath, path)
}

func (s *Server) loadSource(path string) (structural.FileSource, error) {
	data, err := os.ReadFile(s.resolvePath(path))
	if err != nil {
		return structural.FileSource{}, err
	}
	return structural.FileSource{Path: path, Content: data}, nil
}

// loadSources enumerates every non-binary file under directory (relative to
// the project root; empty means the whole tree) for the structural queries
// that must search across multiple files (find_definition, find_references).
func (s *Server) loadSources(ctx context.Context, directory string) ([]structural.FileSource, error) {
	cache, err := gitignore.NewCache(1000)
	if err != nil {
		return nil, err
	}
	w, err := walker.New(s.resolvePath(directory), walker.Options{IgnoreCache: cache})
	if err != nil {
		return nil, err
	}
	files, err := w.Walk()
	if err != nil {
		return nil, err
	}

	var sources []structural.FileSource
	for _, f := range files {
		if f.IsBinary || f.IsSymlink {
			continue
		}
		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			continue
		}
		sources = append(sources, structural.FileSource{Path: f.Path, Content: data})
	}
	return sources, nil
}
