// Package store holds the three persisted indexes: the metadata store
// (SQLite), the lexical index (Bleve/BM25) and the vector index (HNSW).
package store

import "context"

// CurrentSchemaVersion gates the metadata store's on-disk schema.
const CurrentSchemaVersion = 1

// Project is the single row describing an indexed workspace.
type Project struct {
	ID       string
	RootPath string
	Name     string
}

// File is the persisted record for one file, one-to-many with Chunks.
type File struct {
	ProjectID   string
	Path        string
	ContentHash string
	Size        int64
	ModTime     int64
	IsBinary    bool
}

// Chunk is the persisted record for one chunk.
type Chunk struct {
	ID            string
	ProjectID     string
	FilePath      string
	Content       string
	StartLine     int
	EndLine       int
	SymbolName    string
	SymbolKind    string
	ParentSymbol  string
	Visibility    string
	RawVisibility string
}

// MetadataStore is the File/Chunk/Project system of record.
type MetadataStore interface {
	SaveProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id string) (Project, error)

	SaveFiles(ctx context.Context, files []File) error
	GetFileByPath(ctx context.Context, projectID, path string) (File, bool, error)
	ListFiles(ctx context.Context, projectID string) ([]File, error)
	DeleteFile(ctx context.Context, projectID, path string) error

	SaveChunks(ctx context.Context, chunks []Chunk) error
	GetChunk(ctx context.Context, id string) (Chunk, bool, error)
	GetChunksByFile(ctx context.Context, projectID, path string) ([]Chunk, error)
	DeleteChunksByFile(ctx context.Context, projectID, path string) error

	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// Document is one unit indexed lexically: a chunk or a whole-file document,
// distinguished by DocType.
type Document struct {
	ID         string
	DocType    string // "chunk" or "file"
	Content    string
	FilePath   string
	SymbolName string
	SymbolKind string
	Language   string
}

// LexicalResult is one BM25 hit.
type LexicalResult struct {
	ID    string
	Score float64
}

// LexicalIndex is the BM25 full-text index over both file and chunk
// documents (distinguished by Document.DocType), per §4.7's shared-store
// schema. Search scores chunk documents (search_chunks); SearchFiles scores
// whole-file documents (search_files).
type LexicalIndex interface {
	Index(ctx context.Context, doc Document) error
	IndexBatch(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]LexicalResult, error)
	SearchFiles(ctx context.Context, query string, limit int) ([]LexicalResult, error)
	Delete(ctx context.Context, id string) error
	DeleteByFile(ctx context.Context, filePath string) error
	Close() error
}

// VectorResult is one nearest-neighbor hit.
type VectorResult struct {
	ID    string
	Score float64
}

// VectorStore is the approximate nearest-neighbor index over chunk
// embeddings.
type VectorStore interface {
	Add(ctx context.Context, id string, vector []float32) error
	Search(ctx context.Context, query []float32, limit int) ([]VectorResult, error)
	Delete(ctx context.Context, id string) error
	Count() int
	Save() error
	Close() error
}
