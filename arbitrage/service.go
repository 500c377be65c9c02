// Package arbitrage wires the rate sources, graph builder, path search and ranking
// into a single query service
package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/search"
)

// DefaultGraphTTL is the default graph snapshot lifetime
const DefaultGraphTTL = 5 * time.Minute

const graphBuildKey = "graph"

// RateCollector gathers the raw rates a graph is built from
type RateCollector interface {
	Collect(ctx context.Context, observer progress.Observer) (graph.RateSources, legality.ReferencePairs)
}

// Snapshot is a built graph, and when it was built
type Snapshot struct {
	Graph   *graph.Graph
	BuiltAt time.Time
}

// Result is the outcome of a single query
type Result struct {
	ID      string      `json:"id"`
	Query   Query       `json:"query"`
	Quotes  []Quote     `json:"quotes"`
	Found   int         `json:"found"`
	Graph   graph.Stats `json:"graph"`
	BuiltAt time.Time   `json:"built_at"`
}

// Service answers path queries against a cached graph snapshot
type Service struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	collector  RateCollector
	universe   *currencies.Universe
	classifier *legality.Classifier

	snapshot   *Snapshot
	generation uint64 // bumped by Invalidate
	builds     singleflight.Group
	mu         sync.RWMutex

	fee        float64
	maxHops    int
	topResults int
	graphTTL   time.Duration
	now        func() time.Time
}

// New creates a new arbitrage service
func New(collector RateCollector, opts ...Option) *Service {
	s := &Service{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		collector:  collector,
		universe:   currencies.Default(),
		classifier: legality.NewDefaultClassifier(),
		fee:        graph.DefaultFee,
		maxHops:    search.DefaultMaxHops,
		topResults: search.DefaultTopResults,
		graphTTL:   DefaultGraphTTL,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Universe returns the configured currency universe
func (s *Service) Universe() *currencies.Universe {
	return s.universe
}

// Invalidate drops the cached graph. The next query rebuilds it.
// A build in flight when Invalidate is called is not cached
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = nil
	s.generation++
}

// Graph returns the current graph snapshot, building a new one if the cached
// snapshot is missing or expired. Concurrent callers share a single build, only
// the observer of the caller that triggered it receives the build milestones.
//
// The shared build is detached from the caller's cancellation (the collector
// bounds every fetch), so a caller that goes away does not fail the others.
// A cancelled caller stops waiting, and gets the context error.
// An empty graph is never cached, and yields ErrEmptyGraph
func (s *Service) Graph(ctx context.Context, observer progress.Observer) (*Snapshot, error) {
	if snap := s.cached(); snap != nil {
		return snap, nil
	}

	buildCh := s.builds.DoChan(graphBuildKey, func() (any, error) {
		// Check again, a build might have just completed
		if snap := s.cached(); snap != nil {
			return snap, nil
		}

		return s.build(context.WithoutCancel(ctx), observer)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-buildCh:
		if res.Err != nil {
			return nil, res.Err
		}

		snap, _ := res.Val.(*Snapshot)

		return snap, nil
	}
}

func (s *Service) cached() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil
	}

	if s.now().Sub(s.snapshot.BuiltAt) >= s.graphTTL {
		return nil
	}

	return s.snapshot
}

// build collects the sources and builds a fresh graph.
// The previous snapshot is replaced, never modified
func (s *Service) build(ctx context.Context, observer progress.Observer) (*Snapshot, error) {
	start := time.Now()

	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	sources, reference := s.collector.Collect(ctx, observer)

	builder := graph.NewBuilder(
		graph.WithLogger(s.logger),
		graph.WithFee(s.fee),
		graph.WithUniverse(s.universe),
		graph.WithClassifier(s.classifier),
		graph.WithObserver(observer),
	)

	g := builder.Build(sources, reference)

	if g.Empty() {
		s.metrics.ObserveBuild(metrics.OutcomeEmpty, time.Since(start), 0, 0)
		s.logger.Error("unable to build exchange graph, no rate data")

		return nil, ErrEmptyGraph
	}

	snap := &Snapshot{
		Graph:   g,
		BuiltAt: s.now(),
	}

	s.mu.Lock()
	stale := s.generation != generation
	if !stale {
		s.snapshot = snap
	}
	s.mu.Unlock()

	if stale {
		// Rates changed mid-build, the next query rebuilds
		s.logger.Debug("exchange graph invalidated during build, not caching")
	}

	stats := g.Stats()

	s.metrics.ObserveBuild(metrics.OutcomeSuccess, time.Since(start), stats.Nodes, stats.Edges)
	s.logger.Info(
		"built exchange graph",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"legal_edges", stats.LegalEdges,
		"reference_pairs", len(reference),
		"took", time.Since(start).String(),
	)

	return snap, nil
}

// Search validates the query, and runs a ranked path search over the current graph.
// Finding no path is a valid outcome, with no quotes
func (s *Service) Search(ctx context.Context, q Query, observer progress.Observer) (*Result, error) {
	q, err := q.validate(s.universe, s.maxHops, s.topResults)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeInvalid, 0, 0)

		return nil, err
	}

	snap, err := s.Graph(ctx, observer)
	if err != nil {
		outcome := metrics.OutcomeError

		switch {
		case errors.Is(err, ErrEmptyGraph):
			outcome = metrics.OutcomeEmpty
		case ctx.Err() != nil:
			outcome = metrics.OutcomeCancelled
		}

		s.metrics.ObserveSearch(outcome, 0, 0)

		return nil, err
	}

	start := time.Now()

	paths, err := search.FindPaths(
		ctx,
		snap.Graph,
		q.Source,
		q.Target,
		q.MaxHops,
		search.WithObserver(observer),
	)
	if err != nil {
		s.metrics.ObserveSearch(metrics.OutcomeCancelled, time.Since(start), 0)

		return nil, fmt.Errorf("unable to complete path search, %w", err)
	}

	s.metrics.ObserveSearch(metrics.OutcomeSuccess, time.Since(start), len(paths))

	ranked := search.Rank(paths, q.Top)
	loop := q.Source == q.Target

	quotes := make([]Quote, 0, len(ranked))
	for _, r := range ranked {
		quotes = append(quotes, newQuote(r, q.Amount, loop))
	}

	id := xid.New().String()

	s.logger.Debug(
		"path search complete",
		"id", id,
		"source", q.Source,
		"target", q.Target,
		"max_hops", q.MaxHops,
		"found", len(paths),
	)

	return &Result{
		ID:      id,
		Query:   q,
		Quotes:  quotes,
		Found:   len(paths),
		Graph:   snap.Graph.Stats(),
		BuiltAt: snap.BuiltAt,
	}, nil
}
