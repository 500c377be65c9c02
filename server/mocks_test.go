package server

import (
	"context"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
)

type (
	universeDelegate func() *currencies.Universe
	graphDelegate    func(context.Context, progress.Observer) (*arbitrage.Snapshot, error)
	searchDelegate   func(context.Context, arbitrage.Query, progress.Observer) (*arbitrage.Result, error)
)

type mockArbitrage struct {
	universeFn universeDelegate
	graphFn    graphDelegate
	searchFn   searchDelegate
}

func (m *mockArbitrage) Universe() *currencies.Universe {
	if m.universeFn != nil {
		return m.universeFn()
	}

	return currencies.Default()
}

func (m *mockArbitrage) Graph(ctx context.Context, observer progress.Observer) (*arbitrage.Snapshot, error) {
	if m.graphFn != nil {
		return m.graphFn(ctx, observer)
	}

	return nil, nil
}

func (m *mockArbitrage) Search(
	ctx context.Context,
	q arbitrage.Query,
	observer progress.Observer,
) (*arbitrage.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, observer)
	}

	return nil, nil
}
