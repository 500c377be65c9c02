package arbitrage

import (
	"context"
	"fmt"
	"time"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage"
	"github.com/sig-0/fxarb/storage/types"
)

// storeQueryLimit is the page size used when reading rate snapshots
const storeQueryLimit = 500

// StoreSource serves fiat rates and crypto tickers out of ingested storage data,
// taking the latest observation (as of now) per pair
type StoreSource struct {
	storage  storage.Storage
	universe *currencies.Universe
	now      func() time.Time
}

// NewStoreSource creates a new storage-backed rate source
func NewStoreSource(s storage.Storage, universe *currencies.Universe) *StoreSource {
	return &StoreSource{
		storage:  s,
		universe: universe,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// FiatRates returns the latest fiat cross-rates for the base currency
func (s *StoreSource) FiatRates(ctx context.Context, base types.Currency) (map[types.Currency]float64, error) {
	latest, err := s.latest(ctx, base, nil)
	if err != nil {
		return nil, err
	}

	out := make(map[types.Currency]float64, len(latest))

	for target, rate := range latest {
		if rate.Source.Kind() != types.MarketFiat {
			continue
		}

		out[target] = rate.Rate
	}

	return out, nil
}

// Tickers returns the latest crypto prices over the universe
func (s *StoreSource) Tickers(ctx context.Context) ([]types.Ticker, error) {
	source := types.SourceBinance

	var tickers []types.Ticker

	for _, base := range s.universe.All() {
		latest, err := s.latest(ctx, base, &source)
		if err != nil {
			return nil, err
		}

		// Deterministic order, following the universe
		for _, target := range s.universe.All() {
			rate, ok := latest[target]
			if !ok {
				continue
			}

			tickers = append(tickers, types.Ticker{
				Pair: types.Pair{
					Base:   base,
					Target: target,
				},
				Price: rate.Rate,
			})
		}
	}

	return tickers, nil
}

// latest fetches the most recent MID rate per target for the base
func (s *StoreSource) latest(
	ctx context.Context,
	base types.Currency,
	source *types.Source,
) (map[types.Currency]*types.ExchangeRate, error) {
	rateType := types.RateTypeMID

	var (
		out   = make(map[types.Currency]*types.ExchangeRate)
		query = &types.RateQuery{
			Base:     base,
			Source:   source,
			RateType: &rateType,
			Limit:    storeQueryLimit,
		}
		now = s.now()
	)

	for {
		page, err := s.storage.RateAsOf(ctx, query, now)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch stored rates for %s: %w", base, err)
		}

		if page == nil {
			return out, nil
		}

		for _, rate := range page.Results {
			if rate == nil {
				continue
			}

			cur, ok := out[rate.Target]
			if !ok || rate.AsOf.After(cur.AsOf) {
				out[rate.Target] = rate
			}
		}

		query.Offset += int64(len(page.Results))

		if len(page.Results) == 0 || query.Offset >= page.Total {
			return out, nil
		}
	}
}
