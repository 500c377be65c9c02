package graph

import "github.com/sig-0/fxarb/storage/types"

// Directed is a raw directed edge, as taken verbatim by FromEdges
type Directed struct {
	From  types.Currency
	To    types.Currency
	Rate  float64
	Legal bool
}

// FromEdges assembles a Graph from exactly the given edges, applying the fee.
// No legality evaluation or reciprocal synthesis is done, later edges overwrite
// earlier ones for the same ordered pair. Useful for fixtures and replays
func FromEdges(fee float64, edges ...Directed) *Graph {
	g := newGraph()

	for _, e := range edges {
		if !validRate(e.Rate) {
			continue
		}

		g.setEdge(e.From, e.To, Edge{
			Rate:      e.Rate,
			Effective: e.Rate * (1 - fee),
			Legal:     e.Legal,
		})
	}

	return g
}
