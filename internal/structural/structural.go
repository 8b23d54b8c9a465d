// Package structural answers symbol-level queries (definitions,
// references, dependencies, call graphs, complexity) by re-parsing source
// on demand rather than maintaining a persistent symbol database.
package structural

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/glyphcode/glyph/internal/lang"
)

// Definition locates a named symbol's declaration.
type Definition struct {
	FilePath   string
	Symbol     lang.Symbol
}

// Reference is one call-graph edge into a symbol: CallerSymbol calls it at
// Line within FilePath.
type Reference struct {
	FilePath     string
	Line         int
	CallerSymbol string
}

// FileSource pairs a file path with its current content, the unit the
// structural queries operate over.
type FileSource struct {
	Path    string
	Content []byte
}

// Engine answers structural queries over a set of files, re-parsing each on
// every call.
type Engine struct {
	parser *lang.Parser
}

// NewEngine builds a structural query Engine.
func NewEngine(parser *lang.Parser) *Engine {
	return &Engine{parser: parser}
}

// FindDefinition returns every symbol named `name` across files.
func (e *Engine) FindDefinition(ctx context.Context, files []FileSource, name string) ([]Definition, error) {
	var defs []Definition
	for _, f := range files {
		result, ok, err := e.parse(ctx, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, sym := range result.Symbols {
			if sym.Name == name {
				defs = append(defs, Definition{FilePath: f.Path, Symbol: sym})
			}
		}
	}
	return defs, nil
}

// FindReferences builds each file's call graph and returns the callers of
// name, one Reference per distinct caller per file.
func (e *Engine) FindReferences(ctx context.Context, files []FileSource, name string) ([]Reference, error) {
	var refs []Reference
	for _, f := range files {
		result, ok, err := e.parse(ctx, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		for _, edge := range result.CallGraph {
			if edge.Callee != name || seen[edge.Caller] {
				continue
			}
			seen[edge.Caller] = true
			refs = append(refs, Reference{FilePath: f.Path, Line: edge.Line, CallerSymbol: edge.Caller})
		}
	}
	return refs, nil
}

// GetDependencies returns every import declared in a file.
func (e *Engine) GetDependencies(ctx context.Context, f FileSource) ([]lang.Import, error) {
	result, ok, err := e.parse(ctx, f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return result.Imports, nil
}

// GetCallGraph returns every call edge found in a file.
func (e *Engine) GetCallGraph(ctx context.Context, f FileSource) ([]lang.CallEdge, error) {
	result, ok, err := e.parse(ctx, f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return result.CallGraph, nil
}

// Complexity reports one function's cyclomatic complexity.
type Complexity struct {
	SymbolName string
	Score      int
}

// complexityKeywords/operators are counted as decision points, following the
// standard cyclomatic-complexity formula: 1 + number of decision points.
var complexityPattern = regexp.MustCompile(`\b(if|while|for|match)\b|&&|\|\||\?`)

// AnalyzeComplexity computes McCabe cyclomatic complexity for every
// function symbol in a file, counting if/while/for/match/&&/||/? within
// each symbol's byte span.
func (e *Engine) AnalyzeComplexity(ctx context.Context, f FileSource) ([]Complexity, error) {
	result, ok, err := e.parse(ctx, f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var out []Complexity
	for _, sym := range result.Symbols {
		if sym.Kind != lang.SymbolFunction {
			continue
		}
		body := string(f.Content[sym.StartByte:sym.EndByte])
		matches := complexityPattern.FindAllString(body, -1)
		out = append(out, Complexity{SymbolName: sym.Name, Score: 1 + len(matches)})
	}
	return out, nil
}

// FileMetrics reports whole-file complexity metrics per spec §4.11: line
// counts by kind, symbol counts by kind, and total call-graph edges.
type FileMetrics struct {
	TotalLines     int
	BlankLines     int
	CommentLines   int
	CodeLines      int
	SymbolCounts   map[string]int
	CallGraphEdges int
}

// AnalyzeFile computes file-wide complexity metrics alongside the
// per-function cyclomatic scores from AnalyzeComplexity.
func (e *Engine) AnalyzeFile(ctx context.Context, f FileSource) (FileMetrics, []Complexity, error) {
	result, ok, err := e.parse(ctx, f)
	if err != nil {
		return FileMetrics{}, nil, err
	}

	metrics := FileMetrics{SymbolCounts: map[string]int{}}
	lines := strings.Split(string(f.Content), "\n")
	metrics.TotalLines = len(lines)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			metrics.BlankLines++
		case strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*"):
			metrics.CommentLines++
		default:
			metrics.CodeLines++
		}
	}
	if !ok {
		return metrics, nil, nil
	}

	for _, sym := range result.Symbols {
		metrics.SymbolCounts[string(sym.Kind)]++
	}
	metrics.CallGraphEdges = len(result.CallGraph)

	scores, err := e.AnalyzeComplexity(ctx, f)
	if err != nil {
		return metrics, nil, err
	}
	return metrics, scores, nil
}

func (e *Engine) parse(ctx context.Context, f FileSource) (*lang.ParseResult, bool, error) {
	ext := extOf(f.Path)
	result, ok, err := e.parser.Parse(ctx, ext, f.Content)
	if err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return result, ok, nil
}

func extOf(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx:]
	}
	return ""
}
