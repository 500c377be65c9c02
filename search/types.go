package search

import "github.com/sig-0/fxarb/storage/types"

// TradeStep is a single hop taken along a path
type TradeStep struct {
	From      types.Currency `json:"from"`
	To        types.Currency `json:"to"`
	Rate      float64        `json:"rate"`
	Effective float64        `json:"effective"`
	Legal     bool           `json:"legal"`
}

// PathResult is a single discovered conversion path.
// Path has one more element than Breakdown
type PathResult struct {
	Path       []types.Currency `json:"path"`
	Breakdown  []TradeStep      `json:"breakdown"`
	Multiplier float64          `json:"multiplier"`
}

// Hops returns the number of conversions in the path
func (r PathResult) Hops() int {
	return len(r.Breakdown)
}
