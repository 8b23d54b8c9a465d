// Package embed provides the capability boundary for turning chunk text
// into vectors. The reference implementation is a local, deterministic,
// network-free hash embedder; a real neural backend can be substituted
// behind the same Embedder interface without touching the indexer.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// Dimensions is the fixed embedding width produced by Embedder.
const Dimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// Embedder generates vector embeddings for chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// HashEmbedder is the reference Embedder: deterministic, local, and
// network-free.
type HashEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// NewHashEmbedder builds a HashEmbedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]bool{
	"fn": true, "pub": true, "struct": true, "enum": true, "impl": true,
	"let": true, "mut": true, "use": true, "mod": true, "const": true,
	"static": true, "self": true, "true": true, "false": true, "return": true,
}

// Embed generates a deterministic embedding for a single text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, Dimensions), nil
	}
	return normalize(generateVector(trimmed)), nil
}

// EmbedBatch embeds a slice of texts, preserving order. An error on any
// text aborts the whole batch (EmbedFailed), per the retry-once-then-surface
// contract the indexer applies at the call site.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the fixed embedding width.
func (e *HashEmbedder) Dimensions() int { return Dimensions }

// Close marks the embedder unusable. Idempotent.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func generateVector(text string) []float32 {
	vector := make([]float32, Dimensions)

	for _, tok := range filterStopWords(tokenize(text)) {
		vector[hashToIndex(tok)] += tokenWeight
	}

	for _, ng := range extractNgrams(normalizeForNgrams(text), ngramSize) {
		vector[hashToIndex(ng)] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			if lower := strings.ToLower(t); lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var out []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				out = append(out, splitCamelCase(part)...)
			}
		}
		return out
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				if cur.Len() > 0 {
					out = append(out, cur.String())
					cur.Reset()
				}
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func filterStopWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !stopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashToIndex(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(Dimensions))
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
