package lang

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser parses source files using the tree-sitter grammar registered for
// their extension.
type Parser struct {
	registry *Registry
}

// NewParser builds a Parser against the default (Rust-only) registry.
func NewParser() *Parser {
	return &Parser{registry: DefaultRegistry}
}

// NewParserWithRegistry builds a Parser against a custom registry, letting
// callers register additional grammars without touching this package.
func NewParserWithRegistry(r *Registry) *Parser {
	return &Parser{registry: r}
}

// SupportedExtensions proxies the registry's extension list.
func (p *Parser) SupportedExtensions() []string {
	return p.registry.SupportedExtensions()
}

// Parse extracts symbols, imports and a textual call graph from source,
// given its file extension (e.g. ".rs"). Returns (nil, false, nil) for an
// unrecognized extension so callers can fall back to line-based chunking.
func (p *Parser) Parse(ctx context.Context, ext string, source []byte) (*ParseResult, bool, error) {
	cfg, tsLang, ok := p.registry.ByExtension(ext)
	if !ok {
		return nil, false, nil
	}

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(tsLang)

	tree, err := tsParser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, true, fmt.Errorf("parsing: %w", err)
	}
	if tree == nil {
		return nil, true, fmt.Errorf("tree-sitter returned nil tree")
	}
	root := tree.RootNode()

	result := &ParseResult{}
	extractSymbols(root, source, cfg, "", result)
	extractImports(root, source, result)
	extractCallGraph(root, source, result)
	return result, true, nil
}

// extractSymbols walks the top level of the tree (and one level into impl
// blocks) collecting Symbol records.
func extractSymbols(n *sitter.Node, src []byte, cfg LanguageConfig, parentSymbol string, result *ParseResult) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind := child.Type()

		switch {
		case cfg.FunctionTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolFunction, parentSymbol))
		case cfg.StructTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolStruct, parentSymbol))
		case cfg.EnumTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolEnum, parentSymbol))
		case cfg.TraitTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolTrait, parentSymbol))
		case cfg.ConstTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolConst, parentSymbol))
		case cfg.StaticTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolStatic, parentSymbol))
		case cfg.TypeAliasTypes[kind]:
			result.Symbols = append(result.Symbols, buildSymbol(child, src, SymbolTypeAlias, parentSymbol))
		case cfg.ModuleTypes[kind]:
			modSym := buildSymbol(child, src, SymbolModule, parentSymbol)
			result.Symbols = append(result.Symbols, modSym)
			if body := findChildByType(child, "declaration_list"); body != nil {
				extractSymbols(body, src, cfg, "", result)
			}
		case cfg.ImplTypes[kind]:
			implSym := buildSymbol(child, src, SymbolImpl, parentSymbol)
			typeName := implTypeName(child, src)
			implSym.Name = typeName
			result.Symbols = append(result.Symbols, implSym)
			if body := findChildByType(child, "declaration_list"); body != nil {
				extractSymbols(body, src, cfg, typeName, result)
			}
		default:
			// descend into otherwise-opaque wrapper nodes (e.g. source_file)
			if kind == "source_file" {
				extractSymbols(child, src, cfg, parentSymbol, result)
			}
		}
	}
}

func buildSymbol(n *sitter.Node, src []byte, kind SymbolKind, parentSymbol string) Symbol {
	name := symbolName(n, src)
	vis, raw := symbolVisibility(n, src)
	return Symbol{
		Name:          name,
		Kind:          kind,
		StartLine:     int(n.StartPoint().Row) + 1,
		EndLine:       int(n.EndPoint().Row) + 1,
		StartByte:     int(n.StartByte()),
		EndByte:       int(n.EndByte()),
		Signature:     signatureLine(n, src),
		DocComment:    docComment(n, src),
		Visibility:    vis,
		RawVisibility: raw,
		ParentSymbol:  parentSymbol,
	}
}

func symbolName(n *sitter.Node, src []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(src)
	}
	return "<anonymous>"
}

func implTypeName(n *sitter.Node, src []byte) string {
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		return typeNode.Content(src)
	}
	return "<impl>"
}

func symbolVisibility(n *sitter.Node, src []byte) (Visibility, string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "visibility_modifier" {
			raw := c.Content(src)
			return VisibilityPublic, raw
		}
	}
	return VisibilityPrivate, ""
}

func signatureLine(n *sitter.Node, src []byte) string {
	content := n.Content(src)
	if idx := strings.IndexByte(content, '{'); idx >= 0 {
		return strings.TrimSpace(content[:idx])
	}
	if idx := strings.IndexByte(content, ';'); idx >= 0 {
		return strings.TrimSpace(content[:idx])
	}
	lines := strings.SplitN(content, "\n", 2)
	return strings.TrimSpace(lines[0])
}

// docComment walks backward over contiguous `///` or `//!` line comments
// and `/**` block comments immediately preceding n.
func docComment(n *sitter.Node, src []byte) string {
	prev := n.PrevSibling()
	var lines []string
	for prev != nil && (prev.Type() == "line_comment" || prev.Type() == "block_comment") {
		text := strings.TrimSpace(prev.Content(src))
		if !strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "//!") && !strings.HasPrefix(text, "/**") {
			break
		}
		lines = append([]string{text}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

func findChildByType(n *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == t {
			return c
		}
	}
	return nil
}

func extractImports(root *sitter.Node, src []byte, result *ParseResult) {
	walk(root, func(n *sitter.Node) {
		if n.Type() == "use_declaration" {
			result.Imports = append(result.Imports, Import{
				Path: strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(n.Content(src), "use "), ";")),
				Line: int(n.StartPoint().Row) + 1,
			})
		}
	})
}

// extractCallGraph resolves call edges by name only: for each function
// symbol, it records every `identifier(` invocation found in its body.
func extractCallGraph(root *sitter.Node, src []byte, result *ParseResult) {
	walk(root, func(n *sitter.Node) {
		if n.Type() != "function_item" {
			return
		}
		caller := symbolName(n, src)
		body := n.ChildByFieldName("body")
		if body == nil {
			return
		}
		walk(body, func(c *sitter.Node) {
			if c.Type() != "call_expression" {
				return
			}
			fn := c.ChildByFieldName("function")
			if fn == nil {
				return
			}
			callee := fn.Content(src)
			if idx := strings.LastIndexByte(callee, ':'); idx >= 0 {
				callee = callee[idx+1:]
			}
			result.CallGraph = append(result.CallGraph, CallEdge{
				Caller: caller,
				Callee: callee,
				Line:   int(c.StartPoint().Row) + 1,
			})
		})
	})
}

func walk(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}
