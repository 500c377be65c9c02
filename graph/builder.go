// Package graph builds the directed rate graph out of fiat cross-rates and crypto tickers
package graph

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// DefaultFee is the default per-hop transaction fee (0.1%)
const DefaultFee = 0.001

// RateSources bundles the raw rates the graph is built from
type RateSources struct {
	// Fiat maps each fiat base currency to its known cross-rates
	Fiat map[types.Currency]map[types.Currency]float64

	// Crypto holds the crypto ticker prices, in source order
	Crypto []types.Ticker
}

// Empty checks if no rates are present at all
func (r RateSources) Empty() bool {
	return len(r.Fiat) == 0 && len(r.Crypto) == 0
}

// Builder merges rate sources into a Graph
type Builder struct {
	logger     *slog.Logger
	universe   *currencies.Universe
	classifier *legality.Classifier
	observer   progress.Observer

	fee float64
}

// NewBuilder creates a new graph builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		universe:   currencies.Default(),
		classifier: legality.NewDefaultClassifier(),
		observer:   progress.Nop,
		fee:        DefaultFee,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build builds a new Graph from the given sources. Each call yields a fresh Graph.
// A build without any usable rate yields an empty graph, not an error
func (b *Builder) Build(sources RateSources, reference legality.ReferencePairs) *Graph {
	g := newGraph()

	b.milestone("Building fiat-to-fiat edges...")

	fiat := b.universe.Fiat()

	for _, src := range fiat {
		rates, ok := sources.Fiat[src]
		if !ok {
			continue
		}

		for _, dst := range fiat {
			if src == dst {
				continue
			}

			rate, ok := rates[dst]
			if !ok {
				continue
			}

			b.addEdge(g, src, dst, rate, reference, false)
		}
	}

	b.milestone("Building crypto edges...")

	for _, ticker := range sources.Crypto {
		if ticker.Pair.Base == ticker.Pair.Target {
			continue
		}

		b.addEdge(g, ticker.Pair.Base, ticker.Pair.Target, ticker.Price, reference, false)
	}

	b.milestone("Adding reciprocal edges...")

	// Reciprocals are gathered against the direct edges only,
	// so a synthesized edge never yields another one
	var reciprocals []types.Ticker

	for _, src := range g.nodes {
		for _, dst := range g.order[src] {
			if g.hasEdge(dst, src) {
				continue
			}

			e := g.edges[src][dst]
			if e.Rate == 0 {
				continue
			}

			reciprocals = append(reciprocals, types.Ticker{
				Pair:  types.Pair{Base: dst, Target: src},
				Price: 1 / e.Rate,
			})
		}
	}

	for _, r := range reciprocals {
		b.addEdge(g, r.Pair.Base, r.Pair.Target, r.Price, reference, true)
	}

	stats := g.Stats()

	b.milestone(
		fmt.Sprintf(
			"Graph ready: %d currencies, %d edges",
			stats.Nodes,
			stats.Edges,
		),
	)

	b.logger.Debug(
		"graph built",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"legal_edges", stats.LegalEdges,
		"reciprocals", len(reciprocals),
	)

	return g
}

// addEdge adds the fee-adjusted src->dst edge (last write wins)
func (b *Builder) addEdge(
	g *Graph,
	src, dst types.Currency,
	rate float64,
	reference legality.ReferencePairs,
	reciprocal bool,
) {
	if !validRate(rate) {
		b.logger.Debug(
			"skipping invalid rate",
			"base", src,
			"target", dst,
			"rate", rate,
		)

		return
	}

	g.setEdge(src, dst, Edge{
		Rate:       rate,
		Effective:  rate * (1 - b.fee),
		Legal:      b.classifier.IsLegal(src, dst, reference),
		Reciprocal: reciprocal,
	})
}

func (b *Builder) milestone(msg string) {
	b.observer.Notify(progress.Event{Message: msg})
}

// validRate checks the rate is a usable, positive price
func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
