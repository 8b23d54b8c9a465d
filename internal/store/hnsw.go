package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWVectorStore is the in-process, file-backed approximate nearest
// neighbor index over chunk embeddings.
type HNSWVectorStore struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	path       string
	dimensions int

	idMap   map[string]uint64    // chunk ID -> graph key
	keyMap  map[uint64]string    // graph key -> chunk ID
	vectors map[uint64][]float32 // graph key -> normalized vector, persisted so Load can rebuild the graph
	nextKey uint64
	closed  bool
}

type hnswMetadata struct {
	IDMap      map[string]uint64
	Vectors    map[uint64][]float32
	NextKey    uint64
	Dimensions int
}

// NewHNSWVectorStore builds a cosine-metric HNSW index backed by path
// (empty path means in-memory only, used for tests).
func NewHNSWVectorStore(path string, dimensions int) *HNSWVectorStore {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	return &HNSWVectorStore{
		graph:      g,
		path:       path,
		dimensions: dimensions,
		idMap:      map[string]uint64{},
		keyMap:     map[uint64]string{},
		vectors:    map[uint64][]float32{},
	}
}

func (s *HNSWVectorStore) Add(ctx context.Context, id string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	if len(vector) != s.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vector), s.dimensions)
	}

	normalized := normalizeInPlace(append([]float32(nil), vector...))

	// Lazy overwrite: if id already exists, its old graph node is orphaned
	// rather than removed, avoiding a known instability in the underlying
	// library when deleting a graph's last remaining node.
	if oldKey, exists := s.idMap[id]; exists {
		delete(s.keyMap, oldKey)
		delete(s.vectors, oldKey)
	}
	key := s.nextKey
	s.nextKey++

	s.graph.Add(hnsw.MakeNode(key, normalized))
	s.idMap[id] = key
	s.keyMap[key] = id
	s.vectors[key] = normalized
	return nil
}

func (s *HNSWVectorStore) Search(ctx context.Context, query []float32, limit int) ([]VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), s.dimensions)
	}

	normalized := normalizeInPlace(append([]float32(nil), query...))
	neighbors := s.graph.Search(normalized, limit*2) // overfetch to cover orphaned/deleted IDs

	out := make([]VectorResult, 0, limit)
	for _, n := range neighbors {
		id, ok := s.keyMap[n.Key]
		if !ok {
			continue
		}
		if curKey, ok := s.idMap[id]; !ok || curKey != n.Key {
			continue // stale/orphaned node from an overwrite
		}
		dist := hnsw.CosineDistance(normalized, n.Value)
		out = append(out, VectorResult{ID: id, Score: 1 - dist/2})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Delete lazily removes id from the lookup tables without touching the
// underlying graph (mirrors Add's overwrite strategy).
func (s *HNSWVectorStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.idMap[id]
	if !ok {
		return nil
	}
	delete(s.idMap, id)
	delete(s.keyMap, key)
	delete(s.vectors, key)
	return nil
}

func (s *HNSWVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

func (s *HNSWVectorStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path == "" {
		return nil
	}

	meta := hnswMetadata{IDMap: s.idMap, Vectors: s.vectors, NextKey: s.nextKey, Dimensions: s.dimensions}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(meta); err != nil {
		return fmt.Errorf("encoding vector store metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating vector store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".vectors-*")
	if err != nil {
		return fmt.Errorf("creating temp vector file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing vector store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp vector file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path+".meta"); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("committing vector store: %w", err)
	}
	return nil
}

// LoadHNSWVectorStore restores metadata and vectors persisted by Save and
// rebuilds the in-memory HNSW graph from them (the underlying graph
// structure itself is not serialized, only the normalized vectors it was
// built from), so a restarted process can search immediately without
// waiting for the next index pass to touch every file.
func LoadHNSWVectorStore(path string, dimensions int) (*HNSWVectorStore, error) {
	s := NewHNSWVectorStore(path, dimensions)

	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading vector store metadata: %w", err)
	}

	var meta hnswMetadata
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding vector store metadata: %w", err)
	}
	s.idMap = meta.IDMap
	s.vectors = meta.Vectors
	s.nextKey = meta.NextKey
	for id, key := range meta.IDMap {
		s.keyMap[key] = id
		if vec, ok := meta.Vectors[key]; ok {
			s.graph.Add(hnsw.MakeNode(key, vec))
		}
	}
	return s, nil
}

func (s *HNSWVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func normalizeInPlace(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
	return v
}

var _ VectorStore = (*HNSWVectorStore)(nil)
