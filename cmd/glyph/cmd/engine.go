package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/glyphcode/glyph/internal/chunk"
	"github.com/glyphcode/glyph/internal/config"
	"github.com/glyphcode/glyph/internal/embed"
	"github.com/glyphcode/glyph/internal/indexer"
	"github.com/glyphcode/glyph/internal/lang"
	"github.com/glyphcode/glyph/internal/search"
	"github.com/glyphcode/glyph/internal/store"
	"github.com/glyphcode/glyph/internal/structural"
)

// engine bundles every component a CLI command needs, wired from one
// project root. Callers must call Close when done.
type engine struct {
	root     string
	dataDir  string
	cfg      config.Config
	metadata store.MetadataStore
	lexical  store.LexicalIndex
	vector   store.VectorStore
	embedder embed.Embedder
	indexer  *indexer.Indexer
	router   *search.Router
	parser   *lang.Parser
}

// projectID is derived from the project root's base name; it namespaces
// the Merkle snapshot file and the metadata store's project row.
func projectID(root string) string {
	return filepath.Base(root)
}

// openEngine wires the metadata store, lexical index, vector store,
// embedder, indexer and query router rooted at root's .glyph data
// directory, loading (or defaulting) the project config along the way.
func openEngine(root string) (*engine, error) {
	dataDir := filepath.Join(root, dataDirName)
	cfg, err := config.Load(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	metadata, err := store.OpenSQLite(filepath.Join(dataDir, "metadata", "sqlite.db"))
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	lexical, err := store.OpenBleveLexicalIndex(filepath.Join(dataDir, "lexical"))
	if err != nil {
		_ = metadata.Close()
		return nil, fmt.Errorf("opening lexical index: %w", err)
	}

	embedder := embed.NewHashEmbedder()

	vectorPath := filepath.Join(dataDir, "vector", "vectors.hnsw")
	vector, err := store.LoadHNSWVectorStore(vectorPath, embedder.Dimensions())
	if err != nil {
		_ = metadata.Close()
		_ = lexical.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	parser := lang.NewParser()
	chunker := chunk.New(parser, chunk.Options{MaxTokens: cfg.Chunk.MaxTokens, OverlapTokens: cfg.Chunk.OverlapTokens})

	ix := indexer.New(indexer.Config{
		ProjectID:   projectID(root),
		RootPath:    root,
		DataDir:     dataDir,
		Metadata:    metadata,
		Lexical:     lexical,
		Vector:      vector,
		Embedder:    embedder,
		Chunker:     chunker,
		WorkerCount: cfg.Workers.Count,
		MaxFileSize: cfg.Paths.MaxFileSizeBytes,
		Logger:      slog.Default(),
	})

	router := search.NewRouterWithRRFConstant(metadata, lexical, vector, embedder, search.Weights{
		BM25Weight:     cfg.Search.BM25Weight,
		SemanticWeight: cfg.Search.SemanticWeight,
	}, cfg.Search.RRFConstant)

	return &engine{
		root: root, dataDir: dataDir, cfg: cfg,
		metadata: metadata, lexical: lexical, vector: vector, embedder: embedder,
		indexer: ix, router: router, parser: parser,
	}, nil
}

// structuralEngine builds a fresh structural.Engine sharing e's parser.
// Structural queries re-parse on demand and keep no persistent state, so
// this is cheap to construct per command.
func (e *engine) structuralEngine() *structural.Engine {
	return structural.NewEngine(e.parser)
}

func (e *engine) Close() error {
	var firstErr error
	if err := e.vector.Save(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.lexical.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.vector.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.metadata.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
