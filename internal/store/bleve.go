package store

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/camelcase"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// CodeAnalyzerName is the custom analyzer registered for chunk content:
// unicode tokenization, camelCase/snake_case splitting, lowercasing.
const CodeAnalyzerName = "code"

func registerCodeAnalyzer(cache *registry.Cache) error {
	_, err := cache.DefineAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			camelcase.Name,
			lowercase.Name,
		},
	})
	return err
}

func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := registerCodeAnalyzer(im.CustomAnalysis()); err != nil {
		return nil, fmt.Errorf("registering code analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = CodeAnalyzerName
	docMapping.AddFieldMappingsAt("Content", contentField)

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("DocType", keywordField)
	docMapping.AddFieldMappingsAt("FilePath", keywordField)

	im.DefaultMapping = docMapping
	return im, nil
}

// BleveLexicalIndex is the BM25-scored full-text index over chunk content.
type BleveLexicalIndex struct {
	idx bleve.Index
}

// OpenBleveLexicalIndex opens (or creates) the lexical index at path. An
// empty path creates an in-memory index, used for tests.
func OpenBleveLexicalIndex(path string) (*BleveLexicalIndex, error) {
	if path == "" {
		im, err := buildIndexMapping()
		if err != nil {
			return nil, err
		}
		idx, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("creating in-memory lexical index: %w", err)
		}
		return &BleveLexicalIndex{idx: idx}, nil
	}

	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening lexical index: %w", err)
		}
		return &BleveLexicalIndex{idx: idx}, nil
	}

	im, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("creating lexical index: %w", err)
	}
	return &BleveLexicalIndex{idx: idx}, nil
}

func (b *BleveLexicalIndex) Index(ctx context.Context, doc Document) error {
	if err := b.idx.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}
	return nil
}

func (b *BleveLexicalIndex) IndexBatch(ctx context.Context, docs []Document) error {
	batch := b.idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batching document %s: %w", doc.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("committing lexical batch: %w", err)
	}
	return nil
}

// Search scores chunk documents only (search_chunks in §4.7's terms).
func (b *BleveLexicalIndex) Search(ctx context.Context, query string, limit int) ([]LexicalResult, error) {
	return b.searchByDocType(ctx, query, "chunk", limit)
}

// SearchFiles scores whole-file documents only (search_files in §4.7's
// terms).
func (b *BleveLexicalIndex) SearchFiles(ctx context.Context, query string, limit int) ([]LexicalResult, error) {
	return b.searchByDocType(ctx, query, "file", limit)
}

func (b *BleveLexicalIndex) searchByDocType(ctx context.Context, query, docType string, limit int) ([]LexicalResult, error) {
	content := bleve.NewMatchQuery(query)
	content.SetField("Content")
	typeFilter := bleve.NewTermQuery(docType)
	typeFilter.SetField("DocType")

	q := bleve.NewConjunctionQuery(content, typeFilter)
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	out := make([]LexicalResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, LexicalResult{ID: hit.ID, Score: hit.Score})
	}
	return out, nil
}

func (b *BleveLexicalIndex) Delete(ctx context.Context, id string) error {
	if err := b.idx.Delete(id); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return nil
}

func (b *BleveLexicalIndex) DeleteByFile(ctx context.Context, filePath string) error {
	q := bleve.NewTermQuery(filePath)
	q.SetField("FilePath")
	req := bleve.NewSearchRequest(q)
	req.Size = 10000

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return fmt.Errorf("finding documents for %s: %w", filePath, err)
	}

	batch := b.idx.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("deleting documents for %s: %w", filePath, err)
	}
	return nil
}

func (b *BleveLexicalIndex) Close() error {
	if err := b.idx.Close(); err != nil {
		return fmt.Errorf("closing lexical index: %w", err)
	}
	return nil
}

var _ LexicalIndex = (*BleveLexicalIndex)(nil)
