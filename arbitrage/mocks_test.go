package arbitrage

import (
	"context"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/storage/types"
)

type (
	fiatRatesDelegate      func(context.Context, types.Currency) (map[types.Currency]float64, error)
	tickersDelegate        func(context.Context) ([]types.Ticker, error)
	referencePairsDelegate func(context.Context) (legality.ReferencePairs, error)
	collectDelegate        func(context.Context, progress.Observer) (graph.RateSources, legality.ReferencePairs)
)

type mockFiatSource struct {
	fiatRatesFn fiatRatesDelegate
}

func (m *mockFiatSource) FiatRates(ctx context.Context, base types.Currency) (map[types.Currency]float64, error) {
	if m.fiatRatesFn != nil {
		return m.fiatRatesFn(ctx, base)
	}

	return nil, nil
}

type mockCryptoSource struct {
	tickersFn tickersDelegate
}

func (m *mockCryptoSource) Tickers(ctx context.Context) ([]types.Ticker, error) {
	if m.tickersFn != nil {
		return m.tickersFn(ctx)
	}

	return nil, nil
}

type mockReferenceSource struct {
	referencePairsFn referencePairsDelegate
}

func (m *mockReferenceSource) ReferencePairs(ctx context.Context) (legality.ReferencePairs, error) {
	if m.referencePairsFn != nil {
		return m.referencePairsFn(ctx)
	}

	return nil, nil
}

type mockCollector struct {
	collectFn collectDelegate
}

func (m *mockCollector) Collect(
	ctx context.Context,
	observer progress.Observer,
) (graph.RateSources, legality.ReferencePairs) {
	if m.collectFn != nil {
		return m.collectFn(ctx, observer)
	}

	return graph.RateSources{}, nil
}
