package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `
use std::fmt;

/// Adds two numbers.
pub fn add(a: i32, b: i32) -> i32 {
    helper(a, b)
}

fn helper(a: i32, b: i32) -> i32 {
    a + b
}

pub struct Point {
    x: i32,
    y: i32,
}

impl Point {
    pub fn new(x: i32, y: i32) -> Point {
        Point { x, y }
    }
}
`

func TestParseExtractsSymbols(t *testing.T) {
	p := NewParser()
	result, ok, err := p.Parse(context.Background(), ".rs", []byte(sample))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, result.Symbols)

	names := map[string]Symbol{}
	for _, s := range result.Symbols {
		names[s.Name] = s
	}

	require.Contains(t, names, "add")
	require.Equal(t, VisibilityPublic, names["add"].Visibility)
	require.Contains(t, names["add"].DocComment, "Adds two numbers")

	require.Contains(t, names, "helper")
	require.Equal(t, VisibilityPrivate, names["helper"].Visibility)

	require.Contains(t, names, "new")
	require.Equal(t, "Point", names["new"].ParentSymbol)
}

func TestParseExtractsImportsAndCallGraph(t *testing.T) {
	p := NewParser()
	result, ok, err := p.Parse(context.Background(), ".rs", []byte(sample))
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, result.Imports, 1)
	require.Equal(t, "std::fmt", result.Imports[0].Path)

	found := false
	for _, edge := range result.CallGraph {
		if edge.Caller == "add" && edge.Callee == "helper" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParseUnsupportedExtension(t *testing.T) {
	p := NewParser()
	result, ok, err := p.Parse(context.Background(), ".py", []byte("def f(): pass"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, result)
}
