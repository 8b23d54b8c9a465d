// Package merkle builds and diffs a hierarchical Merkle tree over a
// project's file tree, enabling O(1) detection of an unchanged tree and
// O(log n + k) detection of the k changed files in a changed one.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/glyphcode/glyph/internal/walker"
)

// Node is one entry in the tree: a leaf (file) or an interior node
// (directory), identified by its hash.
type Node struct {
	Name     string           `msgpack:"name"`
	Hash     string           `msgpack:"hash"`
	IsDir    bool             `msgpack:"is_dir"`
	Size     int64            `msgpack:"size,omitempty"`
	Children map[string]*Node `msgpack:"children,omitempty"`
}

// Snapshot is the persisted root of a project's Merkle tree.
type Snapshot struct {
	SchemaVersion int   `msgpack:"schema_version"`
	Root          *Node `msgpack:"root"`
}

// CurrentSchemaVersion gates snapshot-format compatibility.
const CurrentSchemaVersion = 1

// ChangeSet describes the difference between two snapshots.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Empty reports whether the change set contains no differences.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Build constructs a Snapshot from a flat, already-sorted list of files
// (as produced by walker.Walker.Walk), using each file's recorded content
// hash as its leaf hash so no re-hashing occurs here.
func Build(files []walker.File) *Snapshot {
	root := &Node{Name: "", IsDir: true, Children: map[string]*Node{}}

	for _, f := range files {
		if f.IsSymlink {
			continue
		}
		insert(root, strings.Split(f.Path, "/"), f)
	}

	computeHashes(root)
	return &Snapshot{SchemaVersion: CurrentSchemaVersion, Root: root}
}

func insert(dir *Node, segments []string, f walker.File) {
	name := segments[0]
	if len(segments) == 1 {
		dir.Children[name] = &Node{
			Name: name,
			Hash: f.ContentHash,
			Size: f.Size,
		}
		return
	}
	child, ok := dir.Children[name]
	if !ok {
		child = &Node{Name: name, IsDir: true, Children: map[string]*Node{}}
		dir.Children[name] = child
	}
	insert(child, segments[1:], f)
}

// computeHashes fills in directory hashes bottom-up as
// sha256(sorted "name:hash\n" lines of children), matching the leaf
// convention: a directory's hash changes iff its recursive content changes.
func computeHashes(n *Node) {
	if !n.IsDir {
		return
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		child := n.Children[name]
		computeHashes(child)
		fmt.Fprintf(h, "%s:%s\n", name, child.Hash)
	}
	n.Hash = hex.EncodeToString(h.Sum(nil))
}

// Diff compares two snapshots, pruning subtrees whose hash is unchanged and
// descending only where it differs.
func Diff(oldSnap, newSnap *Snapshot) ChangeSet {
	var cs ChangeSet
	diffNodes("", oldSnap.Root, newSnap.Root, &cs)
	return cs
}

func diffNodes(prefix string, oldNode, newNode *Node, cs *ChangeSet) {
	if oldNode == nil && newNode == nil {
		return
	}
	if oldNode == nil {
		collectAll(prefix, newNode, &cs.Added)
		return
	}
	if newNode == nil {
		collectAll(prefix, oldNode, &cs.Deleted)
		return
	}
	if oldNode.Hash == newNode.Hash && oldNode.IsDir == newNode.IsDir {
		return
	}
	if !oldNode.IsDir && !newNode.IsDir {
		cs.Modified = append(cs.Modified, prefix)
		return
	}
	if oldNode.IsDir != newNode.IsDir {
		// type changed: treat as delete-then-add
		collectAll(prefix, oldNode, &cs.Deleted)
		collectAll(prefix, newNode, &cs.Added)
		return
	}

	names := map[string]bool{}
	for name := range oldNode.Children {
		names[name] = true
	}
	for name := range newNode.Children {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		diffNodes(childPrefix, oldNode.Children[name], newNode.Children[name], cs)
	}
}

func collectAll(prefix string, n *Node, out *[]string) {
	if !n.IsDir {
		*out = append(*out, prefix)
		return
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		collectAll(childPrefix, n.Children[name], out)
	}
}

// Save persists the snapshot to path atomically (temp file + rename).
func Save(path string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load reads a persisted snapshot. A missing file yields (nil, nil) so the
// caller can treat it as "no prior snapshot" (first index pass).
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// Paths lists every file path tracked in snap, in sorted order. Used by
// force-reindex passes that need to know what the prior snapshot covered
// without diffing against it.
func Paths(snap *Snapshot) []string {
	if snap == nil || snap.Root == nil {
		return nil
	}
	var out []string
	collectAll("", snap.Root, &out)
	return out
}

// Empty returns a snapshot representing an empty tree, used as the "old"
// side of a diff on the very first index pass.
func Empty() *Snapshot {
	return &Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		Root:          &Node{Name: "", IsDir: true, Children: map[string]*Node{}},
	}
}
