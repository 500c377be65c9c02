package graph

import (
	"slices"

	"github.com/sig-0/fxarb/storage/types"
)

// Edge is a single directed conversion
type Edge struct {
	Rate      float64 `json:"rate"`      // raw price, 1 src = Rate dst
	Effective float64 `json:"effective"` // Rate after the per-hop fee
	Legal     bool    `json:"legal"`

	// Reciprocal is set on edges synthesized as 1/rate of the opposite direction
	Reciprocal bool `json:"reciprocal"`
}

// Neighbor is an outgoing edge, with its destination
type Neighbor struct {
	To   types.Currency
	Edge Edge
}

// Graph is the directed, weighted rate graph.
// A Graph is never modified once built, and can be shared across concurrent searches
type Graph struct {
	edges map[types.Currency]map[types.Currency]Edge

	// insertion order, used for deterministic traversal
	nodes []types.Currency
	order map[types.Currency][]types.Currency

	nodeSet map[types.Currency]struct{}
}

func newGraph() *Graph {
	return &Graph{
		edges:   make(map[types.Currency]map[types.Currency]Edge),
		order:   make(map[types.Currency][]types.Currency),
		nodeSet: make(map[types.Currency]struct{}),
	}
}

// setEdge writes the src->dst edge, overwriting any previous one.
// An overwritten edge keeps its original traversal position
func (g *Graph) setEdge(src, dst types.Currency, e Edge) {
	out, ok := g.edges[src]
	if !ok {
		out = make(map[types.Currency]Edge)
		g.edges[src] = out
	}

	if _, exists := out[dst]; !exists {
		g.order[src] = append(g.order[src], dst)
	}

	out[dst] = e

	g.addNode(src)
	g.addNode(dst)
}

func (g *Graph) addNode(c types.Currency) {
	if _, ok := g.nodeSet[c]; ok {
		return
	}

	g.nodeSet[c] = struct{}{}
	g.nodes = append(g.nodes, c)
}

// hasEdge checks if the src->dst edge exists
func (g *Graph) hasEdge(src, dst types.Currency) bool {
	_, ok := g.edges[src][dst]

	return ok
}

// Edge returns the src->dst edge, if any
func (g *Graph) Edge(src, dst types.Currency) (Edge, bool) {
	e, ok := g.edges[src][dst]

	return e, ok
}

// Neighbors returns the outgoing edges of src, in insertion order
func (g *Graph) Neighbors(src types.Currency) []Neighbor {
	order := g.order[src]
	out := make([]Neighbor, 0, len(order))

	for _, dst := range order {
		out = append(out, Neighbor{
			To:   dst,
			Edge: g.edges[src][dst],
		})
	}

	return out
}

// Nodes returns the graph currencies, in insertion order
func (g *Graph) Nodes() []types.Currency {
	return slices.Clone(g.nodes)
}

// HasNode checks if the currency is a graph node
func (g *Graph) HasNode(c types.Currency) bool {
	_, ok := g.nodeSet[c]

	return ok
}

// NodeCount returns the number of currencies in the graph
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges in the graph
func (g *Graph) EdgeCount() int {
	count := 0
	for _, out := range g.edges {
		count += len(out)
	}

	return count
}

// LegalEdgeCount returns the number of legal directed edges in the graph
func (g *Graph) LegalEdgeCount() int {
	count := 0

	for _, out := range g.edges {
		for _, e := range out {
			if e.Legal {
				count++
			}
		}
	}

	return count
}

// Empty checks if the graph holds no currencies ("no data")
func (g *Graph) Empty() bool {
	return len(g.nodes) == 0
}

// Stats is a summary of the graph
type Stats struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	LegalEdges int `json:"legal_edges"`
}

// Stats returns the graph summary
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		LegalEdges: g.LegalEdgeCount(),
	}
}
