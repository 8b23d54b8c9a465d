package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuseRewardsBothLists(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []LexicalHit{{ID: "a", Score: 5}, {ID: "b", Score: 4}}
	vec := []VectorHit{{ID: "a", Score: 0.9}, {ID: "c", Score: 0.8}}

	results := f.Fuse(bm25, vec, Weights{BM25Weight: 1, SemanticWeight: 1})
	require.Equal(t, "a", results[0].ChunkID)
	require.True(t, results[0].InBothLists)
	require.InDelta(t, 2.0/float64(f.K+1), results[0].RRFScore, 1e-9)
}

func TestFuseDeterministicTieBreak(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []LexicalHit{{ID: "z", Score: 1}, {ID: "y", Score: 1}}
	results := f.Fuse(bm25, nil, Weights{BM25Weight: 1, SemanticWeight: 1})
	require.Len(t, results, 2)
	require.Equal(t, "z", results[0].ChunkID)
	require.Equal(t, "y", results[1].ChunkID)
}

func TestFuseScoresAreBoundedByRRFBound(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []LexicalHit{{ID: "a", Score: 1}, {ID: "b", Score: 1}, {ID: "c", Score: 1}}
	vec := []VectorHit{{ID: "a", Score: 1}, {ID: "d", Score: 1}}

	bound := 2.0 / float64(f.K+1)
	results := f.Fuse(bm25, vec, Weights{BM25Weight: 1, SemanticWeight: 1})
	for _, r := range results {
		require.LessOrEqual(t, r.RRFScore, bound+1e-9)
		require.GreaterOrEqual(t, r.RRFScore, 0.0)
	}
}

func TestFuseChunksInBothListsOutrankSingleList(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []LexicalHit{{ID: "a", Score: 1}, {ID: "b", Score: 1}}
	vec := []VectorHit{{ID: "a", Score: 1}, {ID: "c", Score: 1}}

	results := f.Fuse(bm25, vec, Weights{BM25Weight: 1, SemanticWeight: 1})
	require.Equal(t, "a", results[0].ChunkID)
	require.True(t, results[0].InBothLists)
}
