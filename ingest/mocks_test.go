package ingest

import (
	"context"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

type (
	nameDelegate     func() string
	intervalDelegate func() time.Duration
	fetchDelegate    func(context.Context) ([]*types.ExchangeRate, error)
)

type mockProvider struct {
	nameFn     nameDelegate
	intervalFn intervalDelegate
	fetchFn    fetchDelegate
}

func (m *mockProvider) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockProvider) Interval() time.Duration {
	if m.intervalFn != nil {
		return m.intervalFn()
	}

	return 0
}

func (m *mockProvider) Fetch(ctx context.Context) ([]*types.ExchangeRate, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}

	return nil, nil
}

// staticProvider yields the same rates on every fetch, stamped with the fetch time
func staticProvider(name string, interval time.Duration, rates ...*types.ExchangeRate) *mockProvider {
	return &mockProvider{
		nameFn: func() string {
			return name
		},
		intervalFn: func() time.Duration {
			return interval
		},
		fetchFn: func(_ context.Context) ([]*types.ExchangeRate, error) {
			now := time.Now().UTC()

			out := make([]*types.ExchangeRate, 0, len(rates))
			for _, r := range rates {
				rate := *r
				rate.AsOf = now
				rate.FetchedAt = now

				out = append(out, &rate)
			}

			return out, nil
		},
	}
}

// midRate is a single MID observation for the pair
func midRate(source types.Source, base, target types.Currency, rate float64) *types.ExchangeRate {
	return &types.ExchangeRate{
		Base:     base,
		Target:   target,
		RateType: types.RateTypeMID,
		Source:   source,
		Rate:     rate,
	}
}
