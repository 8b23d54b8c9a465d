// Package lang wraps tree-sitter parsing behind a small, language-agnostic
// registry, with a Rust grammar registered by default.
package lang

// SymbolKind enumerates the structural element kinds the parser extracts.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolStruct    SymbolKind = "struct"
	SymbolEnum      SymbolKind = "enum"
	SymbolTrait     SymbolKind = "trait"
	SymbolImpl      SymbolKind = "impl"
	SymbolModule    SymbolKind = "module"
	SymbolConst     SymbolKind = "const"
	SymbolStatic    SymbolKind = "static"
	SymbolTypeAlias SymbolKind = "type_alias"
)

// Visibility collapses a language's visibility modifiers to a boolean the
// rest of the pipeline understands, while RawVisibility preserves the
// original token for display purposes.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Symbol is one top-level (or impl-nested) structural element found in a
// parsed file.
type Symbol struct {
	Name           string
	Kind           SymbolKind
	StartLine      int // 1-indexed, inclusive
	EndLine        int // 1-indexed, inclusive
	StartByte      int
	EndByte        int
	Signature      string
	DocComment     string
	Visibility     Visibility
	RawVisibility  string
	ParentSymbol   string // set for impl methods: the impl's type name
	CalleeNames    []string
}

// Import is a single use/import declaration.
type Import struct {
	Path string
	Line int
}

// CallEdge is a textual call-graph edge: Caller calls Callee somewhere in
// its body. Resolution is name-based, not type-checked.
type CallEdge struct {
	Caller string
	Callee string
	Line   int
}

// ParseResult holds everything extracted from one source file.
type ParseResult struct {
	Symbols   []Symbol
	Imports   []Import
	CallGraph []CallEdge
}
