package search

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

const testFee = 0.001

func legalEdge(from, to types.Currency, rate float64) graph.Directed {
	return graph.Directed{
		From:  from,
		To:    to,
		Rate:  rate,
		Legal: true,
	}
}

// triangleGraph is the USD -> EUR -> GBP -> USD loop
func triangleGraph() *graph.Graph {
	return graph.FromEdges(
		testFee,
		legalEdge(currencies.USD, currencies.EUR, 1.1),
		legalEdge(currencies.EUR, currencies.GBP, 0.85),
		legalEdge(currencies.GBP, currencies.USD, 1.08),
	)
}

// denseGraph is a fully built graph over fiat and crypto rates
func denseGraph() *graph.Graph {
	sources := graph.RateSources{
		Fiat: map[types.Currency]map[types.Currency]float64{
			currencies.USD: {
				currencies.EUR: 0.92,
				currencies.GBP: 0.79,
				currencies.INR: 83.1,
			},
			currencies.EUR: {
				currencies.GBP: 0.86,
				currencies.USD: 1.09,
			},
		},
		Crypto: []types.Ticker{
			{Pair: types.Pair{Base: currencies.BTC, Target: currencies.USDT}, Price: 60_000},
			{Pair: types.Pair{Base: currencies.BTC, Target: currencies.EUR}, Price: 55_500},
			{Pair: types.Pair{Base: currencies.USDT, Target: currencies.USD}, Price: 1.001},
			{Pair: types.Pair{Base: currencies.BTC, Target: currencies.INR}, Price: 5_000_000},
		},
	}

	return graph.NewBuilder().Build(sources, legality.NewReferencePairs())
}

// assertWellFormed checks the structural invariants of every result
func assertWellFormed(t *testing.T, results []PathResult, source, target types.Currency, maxHops int) {
	t.Helper()

	for _, r := range results {
		require.Len(t, r.Path, len(r.Breakdown)+1)
		assert.LessOrEqual(t, len(r.Breakdown), maxHops)
		assert.Equal(t, source, r.Path[0])
		assert.Equal(t, target, r.Path[len(r.Path)-1])

		product := 1.0

		for i, step := range r.Breakdown {
			assert.True(t, step.Legal)
			assert.Equal(t, r.Path[i], step.From)
			assert.Equal(t, r.Path[i+1], step.To)

			product *= step.Effective
		}

		assert.InDelta(t, product, r.Multiplier, 1e-9*math.Max(1, product))

		// Simple path (the closing hop of a loop aside)
		inner := r.Path
		if source == target {
			inner = r.Path[:len(r.Path)-1]
		}

		seen := make(map[types.Currency]struct{}, len(inner))

		for _, c := range inner {
			_, dup := seen[c]
			assert.False(t, dup, "duplicate currency %s in %v", c, r.Path)

			seen[c] = struct{}{}
		}
	}
}

func TestFindPaths(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		results, err := FindPaths(
			context.Background(),
			triangleGraph(),
			currencies.USD,
			currencies.USD,
			3,
		)
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]

		assert.Equal(
			t,
			[]types.Currency{currencies.USD, currencies.EUR, currencies.GBP, currencies.USD},
			r.Path,
		)
		assert.InDelta(t, 1.1*0.85*1.08*math.Pow(1-testFee, 3), r.Multiplier, 1e-12)

		assertWellFormed(t, results, currencies.USD, currencies.USD, 3)
	})

	t.Run("round trip out of reach", func(t *testing.T) {
		t.Parallel()

		results, err := FindPaths(
			context.Background(),
			triangleGraph(),
			currencies.USD,
			currencies.USD,
			2,
		)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("empty graph", func(t *testing.T) {
		t.Parallel()

		g := graph.NewBuilder().Build(graph.RateSources{}, nil)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.EUR, 3)
		require.NoError(t, err)

		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("hop bound is strict", func(t *testing.T) {
		t.Parallel()

		g := graph.FromEdges(
			testFee,
			legalEdge(currencies.USD, currencies.EUR, 0.9),
			legalEdge(currencies.EUR, currencies.GBP, 0.85),
		)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.GBP, 1)
		require.NoError(t, err)
		assert.Empty(t, results)

		results, err = FindPaths(context.Background(), g, currencies.USD, currencies.GBP, 2)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Hops())
	})

	t.Run("illegal edges are never traversed", func(t *testing.T) {
		t.Parallel()

		g := graph.FromEdges(
			testFee,
			graph.Directed{From: currencies.USD, To: currencies.RUB, Rate: 90, Legal: false},
			legalEdge(currencies.RUB, currencies.EUR, 0.01),
			legalEdge(currencies.USD, currencies.EUR, 0.9),
		)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.EUR, 3)
		require.NoError(t, err)
		require.Len(t, results, 1)

		for _, r := range results {
			for _, step := range r.Breakdown {
				assert.NotEqual(t, currencies.RUB, step.To)
			}
		}
	})

	t.Run("deny-listed pair never traversed", func(t *testing.T) {
		t.Parallel()

		sources := graph.RateSources{
			Crypto: []types.Ticker{
				{Pair: types.Pair{Base: currencies.USD, Target: currencies.RUB}, Price: 90},
				{Pair: types.Pair{Base: currencies.RUB, Target: currencies.EUR}, Price: 0.01},
			},
		}

		g := graph.NewBuilder().Build(sources, nil)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.EUR, 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("continues past the target", func(t *testing.T) {
		t.Parallel()

		g := graph.FromEdges(
			testFee,
			legalEdge(currencies.USD, currencies.EUR, 0.9),
			legalEdge(currencies.USD, currencies.GBP, 0.8),
			legalEdge(currencies.GBP, currencies.EUR, 1.2),
		)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.EUR, 3)
		require.NoError(t, err)
		require.Len(t, results, 2)

		// Discovery order follows edge insertion order
		assert.Equal(t, []types.Currency{currencies.USD, currencies.EUR}, results[0].Path)
		assert.Equal(
			t,
			[]types.Currency{currencies.USD, currencies.GBP, currencies.EUR},
			results[1].Path,
		)
	})

	t.Run("dense graph invariants", func(t *testing.T) {
		t.Parallel()

		g := denseGraph()

		for _, maxHops := range []int{1, 2, 3, 4} {
			results, err := FindPaths(context.Background(), g, currencies.USD, currencies.BTC, maxHops)
			require.NoError(t, err)

			assertWellFormed(t, results, currencies.USD, currencies.BTC, maxHops)
		}

		loops, err := FindPaths(context.Background(), g, currencies.USD, currencies.USD, 4)
		require.NoError(t, err)
		require.NotEmpty(t, loops)

		assertWellFormed(t, loops, currencies.USD, currencies.USD, 4)
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Parallel()

		results, err := FindPaths(context.Background(), triangleGraph(), "ZZZ", currencies.USD, 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("progress counter", func(t *testing.T) {
		t.Parallel()

		var counts []int

		observer := progress.Func(func(e progress.Event) {
			counts = append(counts, e.Checked)
		})

		_, err := FindPaths(
			context.Background(),
			denseGraph(),
			currencies.USD,
			currencies.BTC,
			4,
			WithObserver(observer),
			WithProgressInterval(5),
		)
		require.NoError(t, err)
		require.NotEmpty(t, counts)

		// Periodic notifications, then the final total
		for i := 0; i < len(counts)-1; i++ {
			assert.Equal(t, (i+1)*5, counts[i])
		}

		assert.GreaterOrEqual(t, counts[len(counts)-1], counts[0])
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancelFn := context.WithCancel(context.Background())
		cancelFn()

		results, err := FindPaths(
			ctx,
			denseGraph(),
			currencies.USD,
			currencies.BTC,
			4,
			WithProgressInterval(1),
		)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, results)
	})

	t.Run("results are independent", func(t *testing.T) {
		t.Parallel()

		g := graph.FromEdges(
			testFee,
			legalEdge(currencies.USD, currencies.GBP, 0.8),
			legalEdge(currencies.GBP, currencies.EUR, 1.2),
			legalEdge(currencies.GBP, currencies.JPY, 190),
			legalEdge(currencies.JPY, currencies.EUR, 0.006),
		)

		results, err := FindPaths(context.Background(), g, currencies.USD, currencies.EUR, 3)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(
			t,
			[]types.Currency{currencies.USD, currencies.GBP, currencies.EUR},
			results[0].Path,
		)
		assert.Equal(
			t,
			[]types.Currency{currencies.USD, currencies.GBP, currencies.JPY, currencies.EUR},
			results[1].Path,
		)
		assert.Len(t, results[0].Breakdown, 2)
	})
}

func TestFindPaths_ConcurrentSearches(t *testing.T) {
	t.Parallel()

	var (
		g    = denseGraph()
		errs = make(chan error, 8)
	)

	expected, err := FindPaths(context.Background(), g, currencies.EUR, currencies.USD, 3)
	require.NoError(t, err)

	for range 8 {
		go func() {
			results, err := FindPaths(context.Background(), g, currencies.EUR, currencies.USD, 3)
			if err == nil && len(results) != len(expected) {
				err = assert.AnError
			}

			errs <- err
		}()
	}

	for range 8 {
		assert.NoError(t, <-errs)
	}
}
