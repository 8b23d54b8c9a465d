// Package gitignore implements gitignore-style pattern matching for the
// walker, with an LRU cache of compiled matchers per directory.
package gitignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Pattern is one compiled gitignore rule.
type Pattern struct {
	raw       string
	negate    bool
	dirOnly   bool
	anchored  bool
	segments  []string
}

// Matcher tests paths, relative to its root, against a set of patterns.
type Matcher struct {
	root     string
	patterns []Pattern
}

// compile turns a single gitignore line into a Pattern. Blank lines and
// comments return (Pattern{}, false).
func compile(line string) (Pattern, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return Pattern{}, false
	}

	p := Pattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") && !strings.HasPrefix(line, "/") {
		p.anchored = true
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	p.segments = strings.Split(line, "/")
	return p, true
}

func (p Pattern) matches(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	name := filepath.Base(relPath)

	if !p.anchored {
		pat := strings.Join(p.segments, "/")
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
		// also try matching against the full relative path for simple
		// single-segment globs like "*.log"
		if len(p.segments) == 1 {
			if ok, _ := filepath.Match(p.segments[0], relPath); ok {
				return true
			}
		}
		return matchAnySuffix(p.segments, relPath)
	}

	pat := strings.Join(p.segments, "/")
	ok, _ := filepath.Match(pat, relPath)
	return ok
}

func matchAnySuffix(segments []string, relPath string) bool {
	parts := strings.Split(relPath, "/")
	pat := strings.Join(segments, "/")
	for i := range parts {
		suffix := strings.Join(parts[i:], "/")
		if ok, _ := filepath.Match(pat, suffix); ok {
			return true
		}
	}
	return false
}

// Load reads a .gitignore file (if present) at dir and returns a Matcher
// rooted at dir. A missing file yields an empty, always-allow Matcher.
func Load(dir string) (*Matcher, error) {
	m := &Matcher{root: dir}

	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := compile(scanner.Text()); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m, scanner.Err()
}

// Match reports whether path (absolute, under m.root) should be ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	ignored := false
	for _, p := range m.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// Cache memoizes Matchers per directory so repeated walks of unchanged
// subtrees don't re-parse .gitignore files.
type Cache struct {
	lru *lru.Cache[string, *Matcher]
}

// NewCache builds a Cache holding up to size compiled matchers.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 1000
	}
	c, err := lru.New[string, *Matcher](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the Matcher for dir, loading and caching it on first use.
func (c *Cache) Get(dir string) (*Matcher, error) {
	if m, ok := c.lru.Get(dir); ok {
		return m, nil
	}
	m, err := Load(dir)
	if err != nil {
		return nil, err
	}
	c.lru.Add(dir, m)
	return m, nil
}

// Invalidate drops dir's cached matcher, forcing a reload on next Get.
func (c *Cache) Invalidate(dir string) {
	c.lru.Remove(dir)
}
