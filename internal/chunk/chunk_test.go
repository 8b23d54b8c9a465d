package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphcode/glyph/internal/lang"
)

const sample = `
use std::fmt;

/// Adds two numbers.
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}

fn helper() {
    add(1, 2);
}
`

func TestChunkProducesOneChunkPerSymbol(t *testing.T) {
	c := New(lang.NewParser(), DefaultOptions())
	chunks, err := c.Chunk(context.Background(), "src/math/ops.rs", []byte(sample))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	names := map[string]Chunk{}
	for _, ch := range chunks {
		names[ch.SymbolName] = ch
	}
	require.Contains(t, names, "add")
	require.Contains(t, names["add"].EmbedText, "File: src/math/ops.rs")
	require.Contains(t, names["add"].EmbedText, "Module: math::ops")
	require.Contains(t, names["add"].EmbedText, "Symbol: add (function)")
	require.Contains(t, names["add"].EmbedText, "Adds two numbers")

	require.Contains(t, names["helper"].EmbedText, "Calls: add")
}

func TestChunkIDsAreStableAcrossRuns(t *testing.T) {
	c := New(lang.NewParser(), DefaultOptions())
	a, err := c.Chunk(context.Background(), "src/lib.rs", []byte(sample))
	require.NoError(t, err)
	b, err := c.Chunk(context.Background(), "src/lib.rs", []byte(sample))
	require.NoError(t, err)

	require.Equal(t, a[0].ID, b[0].ID)
}

func TestChunkByLinesFallback(t *testing.T) {
	c := New(lang.NewParser(), DefaultOptions())
	chunks, err := c.Chunk(context.Background(), "notes.txt", []byte("line one\nline two\n"))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.Equal(t, "text_block", chunks[0].SymbolKind)
}
