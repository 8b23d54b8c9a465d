package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/glyphcode/glyph/internal/embed"
	"github.com/glyphcode/glyph/internal/store"
)

// Result is one ranked hit returned to a caller, combining fused scoring
// with the underlying chunk's metadata.
type Result struct {
	ChunkID      string
	FilePath     string
	Content      string
	Score        float64
	SymbolName   string
	SymbolKind   string
	MatchedBM25  bool
	MatchedVec   bool
}

// Router is the hybrid query engine: it fans a query out to the lexical and
// vector indexes, fuses the result lists, and hydrates the winners from the
// metadata store.
type Router struct {
	metadata store.MetadataStore
	lexical  store.LexicalIndex
	vector   store.VectorStore
	embedder embed.Embedder
	fusion   *RRFFusion
	weights  Weights
}

// NewRouter builds a Router over the three persisted indexes, fusing with
// DefaultRRFConstant. Use NewRouterWithRRFConstant to override it.
func NewRouter(metadata store.MetadataStore, lexical store.LexicalIndex, vector store.VectorStore, embedder embed.Embedder, weights Weights) *Router {
	return NewRouterWithRRFConstant(metadata, lexical, vector, embedder, weights, DefaultRRFConstant)
}

// NewRouterWithRRFConstant builds a Router whose fusion uses a
// caller-supplied k_rrf, e.g. from config.SearchConfig.RRFConstant.
func NewRouterWithRRFConstant(metadata store.MetadataStore, lexical store.LexicalIndex, vector store.VectorStore, embedder embed.Embedder, weights Weights, rrfConstant int) *Router {
	if rrfConstant <= 0 {
		rrfConstant = DefaultRRFConstant
	}
	return &Router{
		metadata: metadata,
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		fusion:   NewRRFFusionWithK(rrfConstant),
		weights:  weights,
	}
}

// Search runs a hybrid query, fetching limit*2+10 candidates from
// each source before fusing down to limit. If one source errors, the
// router degrades gracefully to the other rather than failing the query.
// directory, when non-empty, restricts results to chunks whose file path is
// under that subtree.
func (r *Router) Search(ctx context.Context, projectID, directory, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	fetch := limit*2 + 10

	var bm25Hits []LexicalHit
	lexResults, lexErr := r.lexical.Search(ctx, query, fetch)
	if lexErr == nil {
		for _, h := range lexResults {
			bm25Hits = append(bm25Hits, LexicalHit{ID: h.ID, Score: h.Score})
		}
	}

	var vecHits []VectorHit
	queryVec, embedErr := r.embedder.Embed(ctx, query)
	if embedErr == nil {
		vecResults, vecErr := r.vector.Search(ctx, queryVec, fetch)
		if vecErr == nil {
			for _, h := range vecResults {
				vecHits = append(vecHits, VectorHit{ID: h.ID, Score: h.Score})
			}
		}
	}

	if lexErr != nil && (embedErr != nil || len(vecHits) == 0) {
		return nil, fmt.Errorf("search unavailable: lexical error %v", lexErr)
	}

	fused := r.fusion.Fuse(bm25Hits, vecHits, r.weights)

	out := make([]Result, 0, limit)
	for _, f := range fused {
		c, ok, err := r.metadata.GetChunk(ctx, f.ChunkID)
		if err != nil || !ok {
			continue
		}
		if directory != "" && !underDirectory(c.FilePath, directory) {
			continue
		}
		out = append(out, Result{
			ChunkID:     f.ChunkID,
			FilePath:    c.FilePath,
			Content:     c.Content,
			Score:       f.RRFScore,
			SymbolName:  c.SymbolName,
			SymbolKind:  c.SymbolKind,
			MatchedBM25: f.BM25Rank > 0 && f.BM25Rank <= len(bm25Hits),
			MatchedVec:  f.VecRank > 0 && f.VecRank <= len(vecHits),
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchVectorOnly runs a pure semantic query, skipping the lexical stage
// and RRF fusion entirely. Used by get_similar_code for direct comparison
// against hybrid search.
func (r *Router) SearchVectorOnly(ctx context.Context, directory, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	fetch := limit * 2

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vecResults, err := r.vector.Search(ctx, queryVec, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]Result, 0, limit)
	for _, h := range vecResults {
		c, ok, err := r.metadata.GetChunk(ctx, h.ID)
		if err != nil || !ok {
			continue
		}
		if directory != "" && !underDirectory(c.FilePath, directory) {
			continue
		}
		out = append(out, Result{
			ChunkID: h.ID, FilePath: c.FilePath, Content: c.Content,
			Score: h.Score, SymbolName: c.SymbolName, SymbolKind: c.SymbolKind,
			MatchedVec: true,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// underDirectory reports whether filePath lies within dir (a relative
// project-rooted path, no leading/trailing slash required).
func underDirectory(filePath, dir string) bool {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return true
	}
	filePath = strings.TrimPrefix(filePath, "/")
	return filePath == dir || strings.HasPrefix(filePath, dir+"/")
}
