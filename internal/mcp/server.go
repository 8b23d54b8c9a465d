package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	gosdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/glyphcode/glyph/internal/indexer"
	"github.com/glyphcode/glyph/internal/search"
	"github.com/glyphcode/glyph/internal/structural"
)

// Server wires the engine's operations to MCP tool handlers.
type Server struct {
	mcp        *gosdk.Server
	indexer    *indexer.Indexer
	router     *search.Router
	structural *structural.Engine
	rootPath   string
	logger     *slog.Logger
	mu         sync.Mutex
}

// NewServer builds a Server. indexer, router and structuralEngine must be
// non-nil.
func NewServer(idx *indexer.Indexer, router *search.Router, structuralEngine *structural.Engine, rootPath string, logger *slog.Logger) (*Server, error) {
	if idx == nil || router == nil || structuralEngine == nil {
		return nil, fmt.Errorf("indexer, router and structural engine are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	impl := &gosdk.Implementation{Name: "glyph", Version: "0.1.0"}
	s := &Server{
		mcp:        gosdk.NewServer(impl, nil),
		indexer:    idx,
		router:     router,
		structural: structuralEngine,
		rootPath:   rootPath,
		logger:     logger,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "index", Description: "Run an incremental index pass over the project."}, s.handleIndex)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "search", Description: "Hybrid lexical+semantic code search."}, s.handleSearch)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "read_file_content", Description: "Read a slice of a file's content."}, s.handleReadFileContent)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "find_definition", Description: "Find where a symbol is declared."}, s.handleFindDefinition)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "find_references", Description: "Find callers of a symbol via the call graph, grouped by file."}, s.handleFindReferences)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "get_dependencies", Description: "List a file's imports."}, s.handleGetDependencies)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "get_call_graph", Description: "List a file's call edges."}, s.handleGetCallGraph)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "analyze_complexity", Description: "Report cyclomatic complexity per function."}, s.handleAnalyzeComplexity)
	gosdk.AddTool(s.mcp, &gosdk.Tool{Name: "get_similar_code", Description: "Find chunks semantically similar to a snippet or chunk."}, s.handleGetSimilarCode)
}

// Run serves the protocol over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	transport := &gosdk.StdioTransport{}
	return s.mcp.Run(ctx, transport)
}

func (s *Server) handleIndex(ctx context.Context, req *gosdk.CallToolRequest, in IndexInput) (*gosdk.CallToolResult, IndexOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.indexer.Run(ctx, in.ForceReindex)
	if err != nil {
		return nil, IndexOutput{}, err
	}
	out := IndexOutput{
		Added:      report.Added,
		Modified:   report.Modified,
		Deleted:    report.Deleted,
		DurationMs: report.Duration.Milliseconds(),
	}
	for _, f := range report.Failed {
		out.Failed = append(out.Failed, f.Path)
	}
	return nil, out, nil
}

func (s *Server) handleSearch(ctx context.Context, req *gosdk.CallToolRequest, in SearchInput) (*gosdk.CallToolResult, SearchOutput, error) {
	results, err := s.router.Search(ctx, "", in.Directory, in.Keyword, in.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: toSearchHits(results)}, nil
}

func toSearchHits(results []search.Result) []SearchHit {
	out := make([]SearchHit, len(results))
	for i, r := range results {
		out[i] = SearchHit{Path: r.FilePath, Score: r.Score, Snippet: r.Content}
	}
	return out
}

func (s *Server) handleReadFileContent(ctx context.Context, req *gosdk.CallToolRequest, in ReadFileContentInput) (*gosdk.CallToolResult, ReadFileContentOutput, error) {
	data, err := os.ReadFile(s.resolvePath(in.FilePath))
	if err != nil {
		return nil, ReadFileContentOutput{}, fmt.Errorf("reading %s: %w", in.FilePath, err)
	}
	if looksBinary(data) {
		return nil, ReadFileContentOutput{}, fmt.Errorf("refusing to read binary file %s", in.FilePath)
	}
	content := string(data)
	if in.StartLine > 0 || in.EndLine > 0 {
		lines := strings.Split(content, "\n")
		start := in.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := in.EndLine
		if end <= 0 || end > len(lines) {
			end = len(lines)
		}
		if start < end {
			content = strings.Join(lines[start:end], "\n")
		}
	}
	return nil, ReadFileContentOutput{FilePath: in.FilePath, Content: content}, nil
}

func looksBinary(data []byte) bool {
	if len(data) > 8192 {
		data = data[:8192]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

func (s *Server) handleFindDefinition(ctx context.Context, req *gosdk.CallToolRequest, in FindDefinitionInput) (*gosdk.CallToolResult, FindDefinitionOutput, error) {
	sources, err := s.loadSources(ctx, in.Directory)
	if err != nil {
		return nil, FindDefinitionOutput{}, err
	}
	defs, err := s.structural.FindDefinition(ctx, sources, in.SymbolName)
	if err != nil {
		return nil, FindDefinitionOutput{}, err
	}
	out := FindDefinitionOutput{}
	for _, d := range defs {
		out.Definitions = append(out.Definitions, DefinitionLocation{
			Path: d.FilePath, Line: d.Symbol.StartLine, Kind: string(d.Symbol.Kind),
		})
	}
	return nil, out, nil
}

func (s *Server) handleFindReferences(ctx context.Context, req *gosdk.CallToolRequest, in FindReferencesInput) (*gosdk.CallToolResult, FindReferencesOutput, error) {
	sources, err := s.loadSources(ctx, in.Directory)
	if err != nil {
		return nil, FindReferencesOutput{}, err
	}
	refs, err := s.structural.FindReferences(ctx, sources, in.SymbolName)
	if err != nil {
		return nil, FindReferencesOutput{}, err
	}
	out := FindReferencesOutput{References: map[string][]string{}}
	for _, r := range refs {
		out.References[r.FilePath] = append(out.References[r.FilePath], r.CallerSymbol)
	}
	return nil, out, nil
}

func (s *Server) handleGetDependencies(ctx context.Context, req *gosdk.CallToolRequest, in GetDependenciesInput) (*gosdk.CallToolResult, GetDependenciesOutput, error) {
	src, err := s.loadSource(in.FilePath)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	imports, err := s.structural.GetDependencies(ctx, src)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	out := GetDependenciesOutput{}
	for _, im := range imports {
		out.Imports = append(out.Imports, im.Path)
	}
	return nil, out, nil
}

func (s *Server) handleGetCallGraph(ctx context.Context, req *gosdk.CallToolRequest, in GetCallGraphInput) (*gosdk.CallToolResult, GetCallGraphOutput, error) {
	src, err := s.loadSource(in.FilePath)
	if err != nil {
		return nil, GetCallGraphOutput{}, err
	}
	edges, err := s.structural.GetCallGraph(ctx, src)
	if err != nil {
		return nil, GetCallGraphOutput{}, err
	}
	out := GetCallGraphOutput{Symbols: map[string]SymbolCalls{}}
	for _, e := range edges {
		if in.SymbolName != "" && e.Caller != in.SymbolName && e.Callee != in.SymbolName {
			continue
		}
		caller := out.Symbols[e.Caller]
		caller.Calls = append(caller.Calls, e.Callee)
		out.Symbols[e.Caller] = caller

		callee := out.Symbols[e.Callee]
		callee.CalledBy = append(callee.CalledBy, e.Caller)
		out.Symbols[e.Callee] = callee
	}
	return nil, out, nil
}

func (s *Server) handleAnalyzeComplexity(ctx context.Context, req *gosdk.CallToolRequest, in AnalyzeComplexityInput) (*gosdk.CallToolResult, AnalyzeComplexityOutput, error) {
	src, err := s.loadSource(in.FilePath)
	if err != nil {
		return nil, AnalyzeComplexityOutput{}, err
	}
	metrics, scores, err := s.structural.AnalyzeFile(ctx, src)
	if err != nil {
		return nil, AnalyzeComplexityOutput{}, err
	}
	out := AnalyzeComplexityOutput{
		TotalLines:     metrics.TotalLines,
		BlankLines:     metrics.BlankLines,
		CommentLines:   metrics.CommentLines,
		CodeLines:      metrics.CodeLines,
		SymbolCounts:   metrics.SymbolCounts,
		CallGraphEdges: metrics.CallGraphEdges,
	}
	for _, c := range scores {
		out.Functions = append(out.Functions, FunctionComplexity{SymbolName: c.SymbolName, Score: c.Score})
	}
	return nil, out, nil
}

func (s *Server) handleGetSimilarCode(ctx context.Context, req *gosdk.CallToolRequest, in GetSimilarCodeInput) (*gosdk.CallToolResult, GetSimilarCodeOutput, error) {
	if in.Query == "" {
		return nil, GetSimilarCodeOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.router.SearchVectorOnly(ctx, in.Directory, in.Query, in.Limit)
	if err != nil {
		return nil, GetSimilarCodeOutput{}, err
	}
	return nil, GetSimilarCodeOutput{Results: toSearchHits(results)}, nil
}
