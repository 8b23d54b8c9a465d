// Package chunk splits parsed source files into retrieval units aligned to
// AST symbol boundaries, enriching each with a contextual header and a
// stable, content-addressed identifier.
package chunk

import (
	"context"
	"crypto/sha1"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/glyphcode/glyph/internal/lang"
)

// Options configures the chunker's token budget.
type Options struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultOptions mirror the project config defaults.
func DefaultOptions() Options {
	return Options{MaxTokens: 512, OverlapTokens: 100}
}

// tokensPerChar approximates token count from character count without
// invoking a real tokenizer.
const tokensPerChar = 0.25

func estimateTokens(s string) int {
	return int(float64(len(s)) * tokensPerChar)
}

// namespaceUUID is the fixed namespace chunk IDs are derived from, making
// IDs both valid UUIDs and stable across repeated indexing runs of
// unchanged content.
var namespaceUUID = uuid.MustParse("6ba7b815-9dad-11d1-80b4-00c04fd430c8")

// chunkID derives a deterministic UUID from a file path and the chunk's
// byte range plus content, so unchanged chunks get identical IDs on
// re-indexing while shifted/edited ones get new ones.
func chunkID(filePath string, startByte, endByte int, content string) uuid.UUID {
	h := sha1.New()
	fmt.Fprintf(h, "%s:%d:%d:", filePath, startByte, endByte)
	h.Write([]byte(content))
	return uuid.NewSHA1(namespaceUUID, h.Sum(nil))
}

// Chunk is one retrieval unit: a symbol (or a slice of an oversized one, or
// a line-based fallback window) plus its surrounding context.
type Chunk struct {
	ID            string
	FilePath      string
	Content       string // raw source text of this chunk
	EmbedText     string // Content prefixed with contextual header, fed to the embedder
	StartLine     int
	EndLine       int
	SymbolName    string
	SymbolKind    string
	ParentSymbol  string
	Visibility    string
	RawVisibility string
	PrevOverlap   string
	NextOverlap   string
}

// Chunker turns a parsed file into Chunks.
type Chunker struct {
	parser *lang.Parser
	opts   Options
}

// New builds a Chunker using the given parser and options.
func New(parser *lang.Parser, opts Options) *Chunker {
	if opts.MaxTokens <= 0 {
		opts = DefaultOptions()
	}
	return &Chunker{parser: parser, opts: opts}
}

// Chunk splits source from filePath into Chunks. If the file's extension is
// unsupported by the parser, it falls back to fixed-size line windows.
func (c *Chunker) Chunk(ctx context.Context, filePath string, source []byte) ([]Chunk, error) {
	ext := extOf(filePath)
	result, supported, err := c.parser.Parse(ctx, ext, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	if !supported || len(result.Symbols) == 0 {
		return c.chunkByLines(filePath, source), nil
	}

	lines := strings.Split(string(source), "\n")
	imports := importPaths(result.Imports)

	var chunks []Chunk
	for _, sym := range result.Symbols {
		symChunks := c.chunkSymbol(filePath, source, lines, sym, imports, result.CallGraph)
		chunks = append(chunks, symChunks...)
	}
	overlapChars := int(float64(c.opts.OverlapTokens) / tokensPerChar)
	applyOverlapGeneric(chunks, overlapChars)
	return chunks, nil
}

func (c *Chunker) chunkSymbol(filePath string, source []byte, lines []string, sym lang.Symbol, imports string, callGraph []lang.CallEdge) []Chunk {
	content := string(source[sym.StartByte:sym.EndByte])
	budget := c.opts.MaxTokens
	callees := calleesOf(callGraph, sym.Name)

	if sym.Kind == lang.SymbolImpl && estimateTokens(content) > 2*budget {
		return c.splitImplByHeuristic(filePath, source, lines, sym, imports, callees)
	}

	return []Chunk{c.buildChunk(filePath, sym.StartByte, sym.EndByte, content, sym, imports, lines, callees)}
}

// calleesOf returns the deduplicated, order-preserving list of callees the
// call graph records for callerName.
func calleesOf(callGraph []lang.CallEdge, callerName string) []string {
	seen := make(map[string]bool)
	var callees []string
	for _, edge := range callGraph {
		if edge.Caller != callerName || seen[edge.Callee] {
			continue
		}
		seen[edge.Callee] = true
		callees = append(callees, edge.Callee)
	}
	return callees
}

// splitImplByHeuristic splits an oversized impl block into fixed-size
// character windows of MaxTokens' worth of text, each overlapping the
// previous one by OverlapTokens' worth, named "<impl>_part1", "<impl>_part2",
// and so on. The cuts do not follow method or line boundaries, and no
// separate header chunk is produced. The methods themselves are visited
// individually by the symbol walk (methods inside impl blocks are emitted as
// their own function symbols with ParentSymbol set), so they also get their
// own chunks independently of this split.
func (c *Chunker) splitImplByHeuristic(filePath string, source []byte, lines []string, sym lang.Symbol, imports string, callees []string) []Chunk {
	content := string(source[sym.StartByte:sym.EndByte])
	maxChars := int(float64(c.opts.MaxTokens) / tokensPerChar)
	overlapChars := int(float64(c.opts.OverlapTokens) / tokensPerChar)

	var chunks []Chunk
	part := 1
	for start := 0; start < len(content); {
		end := start + maxChars
		if end > len(content) {
			end = len(content)
		}
		piece := content[start:end]
		sub := sym
		sub.Name = fmt.Sprintf("%s_part%d", sym.Name, part)
		chunks = append(chunks, c.buildChunk(filePath, sym.StartByte+start, sym.StartByte+end, piece, sub, imports, lines, callees))
		part++
		if end == len(content) {
			break
		}
		start = end - overlapChars
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

func (c *Chunker) buildChunk(filePath string, startByte, endByte int, content string, sym lang.Symbol, imports string, lines []string, callees []string) Chunk {
	header := contextHeader(filePath, imports, sym, callees)
	return Chunk{
		ID:            chunkID(filePath, startByte, endByte, content).String(),
		FilePath:      filePath,
		Content:       content,
		EmbedText:     header + content,
		StartLine:     sym.StartLine,
		EndLine:       sym.EndLine,
		SymbolName:    sym.Name,
		SymbolKind:    string(sym.Kind),
		ParentSymbol:  sym.ParentSymbol,
		Visibility:    string(sym.Visibility),
		RawVisibility: sym.RawVisibility,
	}
}

func contextHeader(filePath, imports string, sym lang.Symbol, callees []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// File: %s\n", filePath)
	if mod := modulePath(filePath); mod != "" {
		fmt.Fprintf(&b, "// Module: %s\n", mod)
	}
	fmt.Fprintf(&b, "// Symbol: %s (%s)\n", sym.Name, sym.Kind)
	if sym.DocComment != "" {
		fmt.Fprintf(&b, "%s\n", sym.DocComment)
	}
	if imports != "" {
		fmt.Fprintf(&b, "// Imports: %s\n", imports)
	}
	if len(callees) > 0 {
		fmt.Fprintf(&b, "// Calls: %s\n", strings.Join(callees, ", "))
	}
	return b.String()
}

// modulePath derives a Rust-style module path from a file path: strip the
// extension, drop conventional non-semantic segments (src, the crate-root
// mod.rs/lib.rs/main.rs), and join the rest with "::".
func modulePath(filePath string) string {
	trimmed := strings.TrimSuffix(filePath, extOf(filePath))
	segments := strings.Split(filepath.ToSlash(trimmed), "/")

	var parts []string
	for _, seg := range segments {
		switch seg {
		case "", ".", "src", "mod", "lib", "main":
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "::")
}

func importPaths(imports []lang.Import) string {
	paths := make([]string, 0, len(imports))
	for _, im := range imports {
		paths = append(paths, im.Path)
	}
	return strings.Join(paths, ", ")
}

// applyOverlapGeneric fills PrevOverlap/NextOverlap with roughly OverlapTokens'
// worth of trailing/leading content from the adjacent chunk in file order.
// Chunks are assumed already ordered by position (symbol walk order mirrors
// source order for top-level items).
func applyOverlapGeneric(chunks []Chunk, overlapChars int) {
	for i := range chunks {
		if i > 0 {
			prev := chunks[i-1].Content
			if len(prev) > overlapChars {
				prev = prev[len(prev)-overlapChars:]
			}
			chunks[i].PrevOverlap = prev
		}
		if i < len(chunks)-1 {
			next := chunks[i+1].Content
			if len(next) > overlapChars {
				next = next[:overlapChars]
			}
			chunks[i].NextOverlap = next
		}
	}
}

func extOf(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx:]
	}
	return ""
}
