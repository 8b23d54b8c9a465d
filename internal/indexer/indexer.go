// Package indexer orchestrates the full indexing pass: enumerate via the
// walker, diff against the last Merkle snapshot, run the per-file
// parse/chunk/embed/index pipeline over a bounded worker pool, and persist
// the lexical commit before the new snapshot — so an interrupted pass is
// always safe to retry.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/glyphcode/glyph/internal/chunk"
	"github.com/glyphcode/glyph/internal/embed"
	"github.com/glyphcode/glyph/internal/errs"
	"github.com/glyphcode/glyph/internal/merkle"
	"github.com/glyphcode/glyph/internal/store"
	"github.com/glyphcode/glyph/internal/walker"
)

// FileError records one file's failure during a pass without aborting the
// rest of the pass.
type FileError struct {
	Path string
	Err  error
}

// PassReport summarizes one completed (or partially completed) index pass,
// mirroring the `index` tool's {added, modified, deleted, duration_ms}
// contract.
type PassReport struct {
	FilesScanned int
	Added        int
	Modified     int
	Deleted      int
	ChunksTotal  int
	Duration     time.Duration
	Succeeded    []string
	Failed       []FileError
}

// Config wires the Indexer's dependencies together.
type Config struct {
	ProjectID   string
	RootPath    string
	DataDir     string
	Metadata    store.MetadataStore
	Lexical     store.LexicalIndex
	Vector      store.VectorStore
	Embedder    embed.Embedder
	Chunker     *chunk.Chunker
	WorkerCount int
	MaxFileSize int64
	Logger      *slog.Logger
}

// Indexer runs incremental index passes over one project.
type Indexer struct {
	cfg          Config
	snapshotPath string
	lockPath     string
}

// New builds an Indexer from cfg, filling in defaults.
func New(cfg Config) *Indexer {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = walker.DefaultMaxFileSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Indexer{
		cfg:          cfg,
		snapshotPath: filepath.Join(cfg.DataDir, "merkle", cfg.ProjectID+".snapshot"),
		lockPath:     filepath.Join(cfg.DataDir, "glyph.lock"),
	}
}

// Run executes one incremental index pass. It is safe to call concurrently
// across processes sharing DataDir (guarded by a file lock) but not safe to
// call concurrently within one process against the same Indexer. When force
// is true, the Merkle early-exit is skipped and every currently-tracked file
// is treated as modified, re-processing the whole tree.
func (ix *Indexer) Run(ctx context.Context, force bool) (PassReport, error) {
	start := time.Now()

	if err := os.MkdirAll(ix.cfg.DataDir, 0o755); err != nil {
		return PassReport{}, errs.Wrap("IDX_MKDIR", errs.CategoryTransientIO, err)
	}

	fl := flock.New(ix.lockPath)
	locked, err := fl.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return PassReport{}, errs.Wrap("IDX_LOCK", errs.CategoryTransientIO, err)
	}
	if !locked {
		return PassReport{}, errs.New("IDX_LOCK_BUSY", errs.CategoryTransientIO, "another index pass holds the lock", nil)
	}
	defer fl.Unlock()

	w, err := walker.New(ix.cfg.RootPath, walker.Options{MaxFileSize: ix.cfg.MaxFileSize})
	if err != nil {
		return PassReport{}, errs.Wrap("IDX_WALK_INIT", errs.CategoryFatal, err)
	}

	files, err := w.Walk()
	if err != nil {
		return PassReport{}, errs.Wrap("IDX_WALK", errs.CategoryTransientIO, err)
	}

	newSnapshot := merkle.Build(files)

	oldSnapshot, err := merkle.Load(ix.snapshotPath)
	if err != nil {
		return PassReport{}, errs.Wrap("IDX_SNAPSHOT_LOAD", errs.CategoryCorruption, err)
	}
	if oldSnapshot == nil {
		oldSnapshot = merkle.Empty()
	}

	changes := merkle.Diff(oldSnapshot, newSnapshot)
	if force {
		changes = forceChangeSet(files, oldSnapshot)
	}
	report := PassReport{FilesScanned: len(files)}

	if changes.Empty() {
		report.Duration = time.Since(start)
		return report, nil
	}

	if err := ix.cfg.Metadata.SaveProject(ctx, store.Project{
		ID: ix.cfg.ProjectID, RootPath: ix.cfg.RootPath, Name: filepath.Base(ix.cfg.RootPath),
	}); err != nil {
		return report, errs.Wrap("IDX_SAVE_PROJECT", errs.CategoryTransientIO, err)
	}

	byPath := map[string]walker.File{}
	for _, f := range files {
		byPath[f.Path] = f
	}

	report.Added = len(changes.Added)
	report.Modified = len(changes.Modified)
	report.Deleted = len(changes.Deleted)

	for _, path := range changes.Deleted {
		if err := ix.removeFile(ctx, path); err != nil {
			report.Failed = append(report.Failed, FileError{Path: path, Err: err})
			ix.cfg.Logger.Warn("removing file from indexes failed", "path", path, "error", err)
			continue
		}
		report.Succeeded = append(report.Succeeded, path)
	}

	changed := append([]string{}, changes.Added...)
	changed = append(changed, changes.Modified...)

	sem := make(chan struct{}, ix.cfg.WorkerCount)
	g, gctx := errgroup.WithContext(ctx)

	type outcome struct {
		path       string
		chunkCount int
		err        error
	}
	results := make(chan outcome, len(changed))

	for _, path := range changed {
		path := path
		f, ok := byPath[path]
		if !ok {
			continue
		}
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			n, err := ix.indexFile(gctx, f)
			results <- outcome{path: path, chunkCount: n, err: err}
			return nil // per-file errors don't abort the group; they're collected
		})
	}

	if err := g.Wait(); err != nil {
		return report, errs.Wrap("IDX_WORKER_POOL", errs.CategoryFatal, err)
	}
	close(results)

	for o := range results {
		if o.err != nil {
			report.Failed = append(report.Failed, FileError{Path: o.path, Err: o.err})
			ix.cfg.Logger.Warn("indexing file failed", "path", o.path, "error", o.err)
			continue
		}
		report.Succeeded = append(report.Succeeded, o.path)
		report.ChunksTotal += o.chunkCount
	}

	if err := ix.cfg.Vector.Save(); err != nil {
		return report, errs.Wrap("IDX_VECTOR_SAVE", errs.CategoryVectorStoreUnavailable, err)
	}

	// The snapshot is written last: if the process dies anywhere above,
	// the next run sees the old snapshot and simply redoes the same diff.
	if err := merkle.Save(ix.snapshotPath, newSnapshot); err != nil {
		return report, errs.Wrap("IDX_SNAPSHOT_SAVE", errs.CategoryCorruption, err)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// forceChangeSet treats every currently-enumerated file as modified (so the
// full pipeline re-runs for it) and every previously-tracked file no longer
// present as deleted, bypassing the Merkle early-exit entirely.
func forceChangeSet(files []walker.File, oldSnapshot *merkle.Snapshot) merkle.ChangeSet {
	present := make(map[string]bool, len(files))
	cs := merkle.ChangeSet{}
	for _, f := range files {
		if f.IsBinary {
			continue
		}
		present[f.Path] = true
		cs.Modified = append(cs.Modified, f.Path)
	}
	for _, path := range merkle.Paths(oldSnapshot) {
		if !present[path] {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	return cs
}

func (ix *Indexer) indexFile(ctx context.Context, f walker.File) (int, error) {
	if f.IsBinary {
		return 0, nil
	}

	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return 0, errs.Wrap("IDX_READ", errs.CategoryTransientIO, err)
	}

	chunks, err := ix.cfg.Chunker.Chunk(ctx, f.Path, content)
	if err != nil {
		return 0, errs.Wrap("IDX_PARSE", errs.CategoryParseFailed, err)
	}

	oldChunks, err := ix.cfg.Metadata.GetChunksByFile(ctx, ix.cfg.ProjectID, f.Path)
	if err != nil {
		return 0, errs.Wrap("IDX_LIST_OLD_CHUNKS", errs.CategoryTransientIO, err)
	}
	for _, old := range oldChunks {
		if err := ix.cfg.Vector.Delete(ctx, old.ID); err != nil {
			return 0, errs.Wrap("IDX_VECTOR_DELETE", errs.CategoryVectorStoreUnavailable, err)
		}
	}
	if err := ix.cfg.Metadata.DeleteChunksByFile(ctx, ix.cfg.ProjectID, f.Path); err != nil {
		return 0, errs.Wrap("IDX_DELETE_OLD_CHUNKS", errs.CategoryTransientIO, err)
	}
	// Deletes both the file document and all its chunk documents: both
	// carry FilePath, so one term query clears the whole file's footprint
	// before re-upserting (the vector side applied the same delete-first
	// rule just above).
	if err := ix.cfg.Lexical.DeleteByFile(ctx, f.Path); err != nil {
		return 0, errs.Wrap("IDX_LEXICAL_DELETE", errs.CategoryTransientIO, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbedText
	}
	vectors, err := ix.cfg.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// one retry, per the embed-failure contract, before surfacing.
		vectors, err = ix.cfg.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, errs.Wrap("IDX_EMBED", errs.CategoryEmbedFailed, err)
		}
	}

	storeChunks := make([]store.Chunk, len(chunks))
	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = store.Chunk{
			ID: c.ID, ProjectID: ix.cfg.ProjectID, FilePath: c.FilePath, Content: c.Content,
			StartLine: c.StartLine, EndLine: c.EndLine, SymbolName: c.SymbolName,
			SymbolKind: c.SymbolKind, ParentSymbol: c.ParentSymbol,
			Visibility: c.Visibility, RawVisibility: c.RawVisibility,
		}
		docs[i] = store.Document{
			ID: c.ID, DocType: "chunk", Content: c.Content, FilePath: c.FilePath,
			SymbolName: c.SymbolName, SymbolKind: c.SymbolKind,
		}
		if err := ix.cfg.Vector.Add(ctx, c.ID, vectors[i]); err != nil {
			return 0, errs.Wrap("IDX_VECTOR_ADD", errs.CategoryVectorStoreUnavailable, err)
		}
	}

	if err := ix.cfg.Metadata.SaveChunks(ctx, storeChunks); err != nil {
		return 0, errs.Wrap("IDX_SAVE_CHUNKS", errs.CategoryTransientIO, err)
	}
	docs = append(docs, store.Document{
		ID: "file:" + f.Path, DocType: "file", Content: string(content), FilePath: f.Path,
	})
	if err := ix.cfg.Lexical.IndexBatch(ctx, docs); err != nil {
		return 0, errs.Wrap("IDX_LEXICAL_INDEX", errs.CategoryTransientIO, err)
	}
	if err := ix.cfg.Metadata.SaveFiles(ctx, []store.File{{
		ProjectID: ix.cfg.ProjectID, Path: f.Path, ContentHash: f.ContentHash,
		Size: f.Size, ModTime: f.ModTime, IsBinary: f.IsBinary,
	}}); err != nil {
		return 0, errs.Wrap("IDX_SAVE_FILE", errs.CategoryTransientIO, err)
	}

	return len(chunks), nil
}

func (ix *Indexer) removeFile(ctx context.Context, path string) error {
	chunks, err := ix.cfg.Metadata.GetChunksByFile(ctx, ix.cfg.ProjectID, path)
	if err != nil {
		return fmt.Errorf("listing chunks for removal: %w", err)
	}
	for _, c := range chunks {
		if err := ix.cfg.Vector.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("removing vector %s: %w", c.ID, err)
		}
	}
	if err := ix.cfg.Lexical.DeleteByFile(ctx, path); err != nil {
		return fmt.Errorf("removing lexical docs for %s: %w", path, err)
	}
	if err := ix.cfg.Metadata.DeleteChunksByFile(ctx, ix.cfg.ProjectID, path); err != nil {
		return fmt.Errorf("removing chunks for %s: %w", path, err)
	}
	if err := ix.cfg.Metadata.DeleteFile(ctx, ix.cfg.ProjectID, path); err != nil {
		return fmt.Errorf("removing file record for %s: %w", path, err)
	}
	return nil
}

// Info reports current index sizes for operational introspection (the
// `doctor`/`index info` CLI surfaces this; it is not a tool-protocol entry).
type Info struct {
	ProjectID  string
	FileCount  int
	ChunkCount int
	VectorCount int
}

func (ix *Indexer) GetInfo(ctx context.Context) (Info, error) {
	files, err := ix.cfg.Metadata.ListFiles(ctx, ix.cfg.ProjectID)
	if err != nil {
		return Info{}, fmt.Errorf("listing files: %w", err)
	}
	chunkCount := 0
	for _, f := range files {
		cs, err := ix.cfg.Metadata.GetChunksByFile(ctx, ix.cfg.ProjectID, f.Path)
		if err != nil {
			return Info{}, fmt.Errorf("listing chunks: %w", err)
		}
		chunkCount += len(cs)
	}
	return Info{
		ProjectID:   ix.cfg.ProjectID,
		FileCount:   len(files),
		ChunkCount:  chunkCount,
		VectorCount: ix.cfg.Vector.Count(),
	}, nil
}
