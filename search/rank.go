package search

import (
	"cmp"
	"slices"
)

// DefaultTopResults is the default number of ranked results retained
const DefaultTopResults = 3

// Rank orders the results by descending multiplier, and keeps the first topN.
// Equal multipliers keep their discovery order. A non-positive topN keeps all results.
// The input slice is not modified
func Rank(results []PathResult, topN int) []PathResult {
	ranked := slices.Clone(results)
	if ranked == nil {
		ranked = []PathResult{}
	}

	slices.SortStableFunc(ranked, func(a, b PathResult) int {
		return cmp.Compare(b.Multiplier, a.Multiplier)
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return ranked
}
