// Package search enumerates legal conversion paths over a rate graph, and ranks them
package search

import (
	"context"
	"slices"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/storage/types"
)

const (
	// DefaultMaxHops is the default path length bound
	DefaultMaxHops = 3

	// DefaultProgressInterval is the number of examined edges between
	// progress notifications (and cancellation checks)
	DefaultProgressInterval = 100
)

type Option func(c *config)

type config struct {
	observer progress.Observer
	interval int
}

// WithObserver specifies the observer for the "paths checked" counter
func WithObserver(o progress.Observer) Option {
	return func(c *config) {
		c.observer = progress.OrNop(o)
	}
}

// WithProgressInterval specifies the progress / cancellation check cadence
func WithProgressInterval(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.interval = n
		}
	}
}

// state is the per-call DFS state. Slices are never appended to in place,
// so sibling branches never observe each other's extensions
type state struct {
	path       []types.Currency
	breakdown  []TradeStep
	multiplier float64
}

func (s state) extend(to types.Currency, e graph.Edge) state {
	from := s.path[len(s.path)-1]

	return state{
		path: append(slices.Clip(s.path), to),
		breakdown: append(slices.Clip(s.breakdown), TradeStep{
			From:      from,
			To:        to,
			Rate:      e.Rate,
			Effective: e.Effective,
			Legal:     e.Legal,
		}),
		multiplier: s.multiplier * e.Effective,
	}
}

type searcher struct {
	ctx    context.Context
	g      *graph.Graph
	cfg    config
	target types.Currency

	maxHops int
	checked int
	results []PathResult
}

// FindPaths enumerates every simple path of legal edges from source to target,
// of at most maxHops conversions, in depth-first discovery order.
//
// Paths of every length up to maxHops are returned, reaching the target does not
// stop the expansion. When source equals target, the source may be re-entered once,
// as the hop that closes the loop.
//
// The only error returned is the context error, if the search was cancelled
func FindPaths(
	ctx context.Context,
	g *graph.Graph,
	source, target types.Currency,
	maxHops int,
	opts ...Option,
) ([]PathResult, error) {
	cfg := config{
		observer: progress.Nop,
		interval: DefaultProgressInterval,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if g == nil || maxHops <= 0 || !g.HasNode(source) {
		cfg.observer.Notify(progress.Event{Checked: 0})

		return []PathResult{}, nil
	}

	s := &searcher{
		ctx:     ctx,
		g:       g,
		cfg:     cfg,
		target:  target,
		maxHops: maxHops,
		results: make([]PathResult, 0),
	}

	initial := state{
		path:       []types.Currency{source},
		breakdown:  []TradeStep{},
		multiplier: 1.0,
	}

	if err := s.dfs(initial); err != nil {
		return nil, err
	}

	cfg.observer.Notify(progress.Event{Checked: s.checked})

	return s.results, nil
}

func (s *searcher) dfs(cur state) error {
	last := cur.path[len(cur.path)-1]

	for _, n := range s.g.Neighbors(last) {
		closesLoop := n.To == s.target && n.To == cur.path[0]

		if slices.Contains(cur.path, n.To) && !closesLoop {
			continue
		}

		if !n.Edge.Legal {
			continue
		}

		s.checked++
		if s.checked%s.cfg.interval == 0 {
			s.cfg.observer.Notify(progress.Event{Checked: s.checked})

			if err := s.ctx.Err(); err != nil {
				return err
			}
		}

		next := cur.extend(n.To, n.Edge)

		if n.To == s.target {
			s.results = append(s.results, PathResult{
				Path:       next.path,
				Breakdown:  next.breakdown,
				Multiplier: next.multiplier,
			})
		}

		// A closed loop is terminal, continuing would revisit the source
		if closesLoop || len(next.breakdown) >= s.maxHops {
			continue
		}

		if err := s.dfs(next); err != nil {
			return err
		}
	}

	return nil
}
