// Package mcp exposes the engine's operations as JSON-RPC tools over the
// Model Context Protocol.
package mcp

// IndexInput triggers an incremental index pass.
type IndexInput struct {
	Root         string `json:"root,omitempty" jsonschema:"description=accepted but ignored; the server always indexes its configured root"`
	ForceReindex bool   `json:"force_reindex,omitempty" jsonschema:"description=skip the Merkle early-exit and re-process every file"`
}

// IndexOutput reports what the pass did.
type IndexOutput struct {
	Added      int      `json:"added"`
	Modified   int      `json:"modified"`
	Deleted    int      `json:"deleted"`
	DurationMs int64    `json:"duration_ms"`
	Failed     []string `json:"failed,omitempty" jsonschema:"description=paths that failed to index"`
}

// SearchInput runs a hybrid lexical+semantic query rooted at directory.
type SearchInput struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=subtree to restrict results to; empty means the whole project"`
	Keyword   string `json:"keyword" jsonschema:"description=natural language or code query"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"description=max results; default 10"`
}

// SearchHit is one hybrid search hit.
type SearchHit struct {
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// SearchOutput wraps ranked search results.
type SearchOutput struct {
	Results []SearchHit `json:"results"`
}

// ReadFileContentInput fetches raw file content.
type ReadFileContentInput struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// ReadFileContentOutput carries the requested slice of a file.
type ReadFileContentOutput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// FindDefinitionInput locates a symbol's declaration(s) under directory.
type FindDefinitionInput struct {
	SymbolName string `json:"symbol_name"`
	Directory  string `json:"directory,omitempty"`
}

// DefinitionLocation identifies a symbol's declaration site.
type DefinitionLocation struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Kind string `json:"kind"`
}

// FindDefinitionOutput lists every matching definition.
type FindDefinitionOutput struct {
	Definitions []DefinitionLocation `json:"definitions"`
}

// FindReferencesInput locates callers of a symbol under directory.
type FindReferencesInput struct {
	SymbolName string `json:"symbol_name"`
	Directory  string `json:"directory,omitempty"`
}

// FindReferencesOutput maps file path to the distinct caller symbol names
// found in that file's call graph.
type FindReferencesOutput struct {
	References map[string][]string `json:"references"`
}

// GetDependenciesInput lists a file's imports.
type GetDependenciesInput struct {
	FilePath string `json:"file_path"`
}

// GetDependenciesOutput lists a file's import paths.
type GetDependenciesOutput struct {
	Imports []string `json:"imports"`
}

// GetCallGraphInput lists a file's call edges, optionally scoped to one
// symbol.
type GetCallGraphInput struct {
	FilePath   string `json:"file_path"`
	SymbolName string `json:"symbol_name,omitempty"`
}

// SymbolCalls is one symbol's outgoing and incoming call edges.
type SymbolCalls struct {
	Calls    []string `json:"calls"`
	CalledBy []string `json:"called_by"`
}

// GetCallGraphOutput maps symbol name to its calls/called_by edges.
type GetCallGraphOutput struct {
	Symbols map[string]SymbolCalls `json:"symbols"`
}

// AnalyzeComplexityInput requests complexity metrics for a file.
type AnalyzeComplexityInput struct {
	FilePath string `json:"file_path"`
}

// FunctionComplexity reports one function's cyclomatic complexity.
type FunctionComplexity struct {
	SymbolName string `json:"symbol_name"`
	Score      int    `json:"score"`
}

// AnalyzeComplexityOutput reports per-file metrics per spec §4.11.
type AnalyzeComplexityOutput struct {
	TotalLines      int                   `json:"total_lines"`
	BlankLines      int                   `json:"blank_lines"`
	CommentLines    int                   `json:"comment_lines"`
	CodeLines       int                   `json:"code_lines"`
	SymbolCounts    map[string]int        `json:"symbol_counts"`
	Functions       []FunctionComplexity  `json:"functions"`
	CallGraphEdges  int                   `json:"call_graph_edges"`
}

// GetSimilarCodeInput requests semantically similar chunks to a query
// snippet, restricted to directory.
type GetSimilarCodeInput struct {
	Query     string `json:"query"`
	Directory string `json:"directory,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// GetSimilarCodeOutput lists chunks similar to the input.
type GetSimilarCodeOutput struct {
	Results []SearchHit `json:"results"`
}
