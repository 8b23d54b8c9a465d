package structural

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphcode/glyph/internal/lang"
)

const sample = `
use std::fmt;

pub fn add(a: i32, b: i32) -> i32 {
    if a > 0 && b > 0 {
        helper(a, b)
    } else {
        0
    }
}

fn helper(a: i32, b: i32) -> i32 {
    a + b
}
`

func files() []FileSource {
	return []FileSource{{Path: "lib.rs", Content: []byte(sample)}}
}

func TestFindDefinition(t *testing.T) {
	e := NewEngine(lang.NewParser())
	defs, err := e.FindDefinition(context.Background(), files(), "helper")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.Equal(t, "lib.rs", defs[0].FilePath)
}

func TestFindReferences(t *testing.T) {
	e := NewEngine(lang.NewParser())
	refs, err := e.FindReferences(context.Background(), files(), "helper")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "add", refs[0].CallerSymbol)
	require.Equal(t, "lib.rs", refs[0].FilePath)
}

func TestFindReferencesIgnoresUnrelatedMatches(t *testing.T) {
	e := NewEngine(lang.NewParser())
	refs, err := e.FindReferences(context.Background(), files(), "add")
	require.NoError(t, err)
	require.Empty(t, refs) // nothing in the sample calls add
}

func TestGetDependencies(t *testing.T) {
	e := NewEngine(lang.NewParser())
	imports, err := e.GetDependencies(context.Background(), files()[0])
	require.NoError(t, err)
	require.Len(t, imports, 1)
	require.Equal(t, "std::fmt", imports[0].Path)
}

func TestGetCallGraph(t *testing.T) {
	e := NewEngine(lang.NewParser())
	edges, err := e.GetCallGraph(context.Background(), files()[0])
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "add", edges[0].Caller)
	require.Equal(t, "helper", edges[0].Callee)
}

func TestAnalyzeComplexity(t *testing.T) {
	e := NewEngine(lang.NewParser())
	scores, err := e.AnalyzeComplexity(context.Background(), files()[0])
	require.NoError(t, err)

	byName := map[string]int{}
	for _, c := range scores {
		byName[c.SymbolName] = c.Score
	}
	require.Equal(t, 1+2, byName["add"]) // if, && => 1 + 2
	require.Equal(t, 1, byName["helper"])
}
