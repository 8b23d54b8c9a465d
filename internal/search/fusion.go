// Package search implements the hybrid query router: Reciprocal Rank
// Fusion over the lexical and vector result lists, plus structural query
// delegation.
package search

import "sort"

// DefaultRRFConstant is k_rrf in the fusion formula.
const DefaultRRFConstant = 60

// FusedResult is one chunk's combined ranking after fusion.
type FusedResult struct {
	ChunkID     string
	RRFScore    float64
	BM25Score   float64
	BM25Rank    int
	VecScore    float64
	VecRank     int
	InBothLists bool
}

// Weights controls each list's contribution to the fused score.
type Weights struct {
	BM25Weight     float64
	SemanticWeight float64
}

// RRFFusion combines two ranked lists into one.
type RRFFusion struct {
	K int
}

// NewRRFFusion builds an RRFFusion using DefaultRRFConstant.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// NewRRFFusionWithK builds an RRFFusion using a caller-supplied constant.
func NewRRFFusionWithK(k int) *RRFFusion {
	return &RRFFusion{K: k}
}

// LexicalHit and VectorHit mirror the store package's result types without
// importing it, keeping fusion decoupled from the storage layer.
type LexicalHit struct {
	ID    string
	Score float64
}

type VectorHit struct {
	ID    string
	Score float64
}

// Fuse combines bm25 and vec result lists (each assumed already sorted by
// descending relevance) using Reciprocal Rank Fusion, then sorts by the
// fused score with a deterministic tie-break chain.
func (f *RRFFusion) Fuse(bm25 []LexicalHit, vec []VectorHit, w Weights) []FusedResult {
	type acc struct {
		bm25Score float64
		bm25Rank  int
		vecScore  float64
		vecRank   int
		inBM25    bool
		inVec     bool
	}

	missingRank := maxInt(len(bm25), len(vec)) + 1
	byID := map[string]*acc{}

	for i, hit := range bm25 {
		a, ok := byID[hit.ID]
		if !ok {
			a = &acc{bm25Rank: missingRank, vecRank: missingRank}
			byID[hit.ID] = a
		}
		a.bm25Score = hit.Score
		a.bm25Rank = i + 1
		a.inBM25 = true
	}
	for i, hit := range vec {
		a, ok := byID[hit.ID]
		if !ok {
			a = &acc{bm25Rank: missingRank, vecRank: missingRank}
			byID[hit.ID] = a
		}
		a.vecScore = hit.Score
		a.vecRank = i + 1
		a.inVec = true
	}

	results := make([]FusedResult, 0, len(byID))
	for id, a := range byID {
		rrf := 0.0
		if a.inBM25 {
			rrf += w.BM25Weight / float64(f.K+a.bm25Rank)
		}
		if a.inVec {
			rrf += w.SemanticWeight / float64(f.K+a.vecRank)
		}
		results = append(results, FusedResult{
			ChunkID:     id,
			RRFScore:    rrf,
			BM25Score:   a.bm25Score,
			BM25Rank:    a.bm25Rank,
			VecScore:    a.vecScore,
			VecRank:     a.vecRank,
			InBothLists: a.inBM25 && a.inVec,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return compare(results[i], results[j])
	})

	return results
}

// compare implements the deterministic tie-break chain: RRFScore desc,
// InBothLists first, BM25Score desc, ChunkID asc.
func compare(a, b FusedResult) bool {
	if a.RRFScore != b.RRFScore {
		return a.RRFScore > b.RRFScore
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	if a.BM25Score != b.BM25Score {
		return a.BM25Score > b.BM25Score
	}
	return a.ChunkID < b.ChunkID
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
