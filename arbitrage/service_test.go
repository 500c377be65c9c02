package arbitrage

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// triangleCollector yields the USD -> EUR -> GBP market only
func triangleCollector(calls *atomic.Int32) *mockCollector {
	return &mockCollector{
		collectFn: func(_ context.Context, _ progress.Observer) (graph.RateSources, legality.ReferencePairs) {
			if calls != nil {
				calls.Add(1)
			}

			return graph.RateSources{
				Fiat: map[types.Currency]map[types.Currency]float64{
					currencies.USD: {currencies.EUR: 1.1},
					currencies.EUR: {currencies.GBP: 0.85},
					currencies.GBP: {currencies.USD: 1.08},
				},
			}, legality.NewReferencePairs()
		},
	}
}

func TestService_Search(t *testing.T) {
	t.Parallel()

	t.Run("invalid queries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		s := New(triangleCollector(&calls))

		testTable := []struct {
			name  string
			query Query
			err   error
		}{
			{
				"same currency",
				Query{Source: currencies.USD, Target: currencies.USD, Amount: 1},
				ErrSameCurrency,
			},
			{
				"unknown source",
				Query{Source: currencies.RUB, Target: currencies.USD, Amount: 1},
				ErrUnknownCurrency,
			},
			{
				"unknown target",
				Query{Source: currencies.USD, Target: "ZZZ", Amount: 1},
				ErrUnknownCurrency,
			},
			{
				"zero amount",
				Query{Source: currencies.USD, Target: currencies.EUR},
				ErrInvalidAmount,
			},
			{
				"negative amount",
				Query{Source: currencies.USD, Target: currencies.EUR, Amount: -5},
				ErrInvalidAmount,
			},
			{
				"NaN amount",
				Query{Source: currencies.USD, Target: currencies.EUR, Amount: math.NaN()},
				ErrInvalidAmount,
			},
			{
				"hop count too large",
				Query{Source: currencies.USD, Target: currencies.EUR, Amount: 1, MaxHops: MaxHopsLimit + 1},
				ErrInvalidMaxHops,
			},
			{
				"negative hop count",
				Query{Source: currencies.USD, Target: currencies.EUR, Amount: 1, MaxHops: -1},
				ErrInvalidMaxHops,
			},
			{
				"too many results",
				Query{Source: currencies.USD, Target: currencies.EUR, Amount: 1, Top: MaxTopResults + 1},
				ErrInvalidTop,
			},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				res, err := s.Search(context.Background(), testCase.query, nil)

				assert.ErrorIs(t, err, testCase.err)
				assert.Nil(t, res)
			})
		}

		// Validation happens before any fetch
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("empty graph", func(t *testing.T) {
		t.Parallel()

		s := New(&mockCollector{})

		res, err := s.Search(
			context.Background(),
			Query{Source: currencies.USD, Target: currencies.EUR, Amount: 10},
			nil,
		)

		assert.ErrorIs(t, err, ErrEmptyGraph)
		assert.Nil(t, res)
	})

	t.Run("ranked quotes", func(t *testing.T) {
		t.Parallel()

		s := New(triangleCollector(nil), WithMetrics(metrics.New(prometheus.NewRegistry())))

		res, err := s.Search(
			context.Background(),
			Query{Source: "usd", Target: "gbp", Amount: 1000},
			nil,
		)
		require.NoError(t, err)

		assert.NotEmpty(t, res.ID)
		assert.Equal(t, currencies.USD, res.Query.Source)
		assert.Equal(t, search3Hops, res.Query.MaxHops)
		assert.Equal(t, 3, res.Query.Top)

		// USD->EUR->GBP, and the reciprocal USD->GBP
		require.Equal(t, 2, res.Found)
		require.Len(t, res.Quotes, 2)

		for i := 1; i < len(res.Quotes); i++ {
			assert.GreaterOrEqual(t, res.Quotes[i-1].Multiplier, res.Quotes[i].Multiplier)
		}

		for _, q := range res.Quotes {
			expected := decimal.NewFromFloat(1000).
				Mul(decimal.NewFromFloat(q.Multiplier)).
				Round(6)

			assert.True(t, expected.Equal(q.FinalAmount))
			assert.Nil(t, q.Profit)
		}
	})

	t.Run("loop search", func(t *testing.T) {
		t.Parallel()

		s := New(triangleCollector(nil), WithTopResults(1))

		res, err := s.Search(
			context.Background(),
			Query{Source: currencies.USD, Target: currencies.USD, Amount: 100, AllowLoop: true},
			nil,
		)
		require.NoError(t, err)
		require.Len(t, res.Quotes, 1)

		best := res.Quotes[0]

		assert.Equal(
			t,
			[]types.Currency{currencies.USD, currencies.EUR, currencies.GBP, currencies.USD},
			best.Path,
		)
		assert.InDelta(t, 1.1*0.85*1.08*math.Pow(1-graph.DefaultFee, 3), best.Multiplier, 1e-12)

		require.NotNil(t, best.Profit)
		assert.True(t, best.Profit.Equal(best.FinalAmount.Sub(decimal.NewFromInt(100))))
	})

	t.Run("no path found", func(t *testing.T) {
		t.Parallel()

		s := New(triangleCollector(nil))

		res, err := s.Search(
			context.Background(),
			Query{Source: currencies.USD, Target: currencies.BTC, Amount: 1},
			nil,
		)
		require.NoError(t, err)

		assert.Equal(t, 0, res.Found)
		assert.NotNil(t, res.Quotes)
		assert.Empty(t, res.Quotes)
	})

	t.Run("progress events", func(t *testing.T) {
		t.Parallel()

		var (
			mu     sync.Mutex
			events []progress.Event
		)

		observer := progress.Func(func(e progress.Event) {
			mu.Lock()
			defer mu.Unlock()

			events = append(events, e)
		})

		s := New(triangleCollector(nil))

		_, err := s.Search(
			context.Background(),
			Query{Source: currencies.USD, Target: currencies.GBP, Amount: 1},
			observer,
		)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()

		require.NotEmpty(t, events)
		assert.Contains(t, events[len(events)-2].Message, "Graph ready")
		assert.Positive(t, events[len(events)-1].Checked)
	})
}

const search3Hops = 3

func TestService_Graph(t *testing.T) {
	t.Parallel()

	t.Run("cached snapshot", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		s := New(triangleCollector(&calls), WithGraphTTL(time.Hour))

		first, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		second, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())

		s.Invalidate()

		third, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		// A rebuild yields a new graph, the old one is untouched
		assert.NotSame(t, first.Graph, third.Graph)
		assert.Equal(t, first.Graph.Stats(), third.Graph.Stats())
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("zero TTL rebuilds", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		s := New(triangleCollector(&calls), WithGraphTTL(0))

		for range 3 {
			_, err := s.Graph(context.Background(), nil)
			require.NoError(t, err)
		}

		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("empty graph is not cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		s := New(&mockCollector{
			collectFn: func(_ context.Context, _ progress.Observer) (graph.RateSources, legality.ReferencePairs) {
				calls.Add(1)

				return graph.RateSources{}, nil
			},
		})

		for range 2 {
			_, err := s.Graph(context.Background(), nil)
			assert.ErrorIs(t, err, ErrEmptyGraph)
		}

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("custom fee", func(t *testing.T) {
		t.Parallel()

		s := New(triangleCollector(nil), WithFee(0.01))

		snap, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		e, ok := snap.Graph.Edge(currencies.USD, currencies.EUR)
		require.True(t, ok)

		assert.InDelta(t, 1.1*0.99, e.Effective, 1e-12)
	})

	t.Run("cancelled caller does not fail a shared build", func(t *testing.T) {
		t.Parallel()

		var (
			started   = make(chan struct{})
			release   = make(chan struct{})
			startOnce sync.Once
			fetchErrs atomic.Int32
		)

		fiat := &mockFiatSource{
			fiatRatesFn: func(ctx context.Context, base types.Currency) (map[types.Currency]float64, error) {
				if base != currencies.USD {
					return nil, nil
				}

				startOnce.Do(func() { close(started) })

				select {
				case <-release:
					return map[types.Currency]float64{currencies.EUR: 1.1}, nil
				case <-ctx.Done():
					fetchErrs.Add(1)

					return nil, ctx.Err()
				}
			},
		}

		s := New(NewCollector(fiat, nil, nil), WithGraphTTL(time.Hour))

		leaderCtx, cancelFn := context.WithCancel(context.Background())
		defer cancelFn()

		leaderErrCh := make(chan error, 1)

		go func() {
			_, err := s.Graph(leaderCtx, nil)

			leaderErrCh <- err
		}()

		<-started

		type graphResult struct {
			snap *Snapshot
			err  error
		}

		followerCh := make(chan graphResult, 1)

		go func() {
			snap, err := s.Graph(context.Background(), nil)

			followerCh <- graphResult{snap, err}
		}()

		// The leader goes away mid-build
		cancelFn()

		select {
		case err := <-leaderErrCh:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("leader did not return")
		}

		close(release)

		select {
		case res := <-followerCh:
			require.NoError(t, res.err)
			require.NotNil(t, res.snap)

			e, ok := res.snap.Graph.Edge(currencies.USD, currencies.EUR)
			require.True(t, ok)
			assert.InDelta(t, 1.1, e.Rate, 1e-12)
		case <-time.After(5 * time.Second):
			t.Fatal("follower did not return")
		}

		assert.Zero(t, fetchErrs.Load())
	})

	t.Run("invalidated build is not cached", func(t *testing.T) {
		t.Parallel()

		var (
			calls   atomic.Int32
			started = make(chan struct{})
			release = make(chan struct{})
		)

		triangle := triangleCollector(nil)

		s := New(&mockCollector{
			collectFn: func(ctx context.Context, o progress.Observer) (graph.RateSources, legality.ReferencePairs) {
				if calls.Add(1) == 1 {
					close(started)
					<-release
				}

				return triangle.Collect(ctx, o)
			},
		}, WithGraphTTL(time.Hour))

		buildCh := make(chan *Snapshot, 1)

		go func() {
			snap, err := s.Graph(context.Background(), nil)
			assert.NoError(t, err)

			buildCh <- snap
		}()

		<-started

		// New rates land while the build is collecting
		s.Invalidate()
		close(release)

		first := <-buildCh
		require.NotNil(t, first)

		second, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Equal(t, int32(2), calls.Load())

		// The fresh build is cached
		third, err := s.Graph(context.Background(), nil)
		require.NoError(t, err)

		assert.Same(t, second, third)
		assert.Equal(t, int32(2), calls.Load())
	})

}
