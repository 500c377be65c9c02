package arbitrage

import (
	"context"

	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/storage/types"
)

// FiatSource yields the known cross-rates (base -> target) of a fiat base currency
type FiatSource interface {
	FiatRates(ctx context.Context, base types.Currency) (map[types.Currency]float64, error)
}

// CryptoSource yields the crypto ticker prices over the currency universe
type CryptoSource interface {
	Tickers(ctx context.Context) ([]types.Ticker, error)
}

// ReferenceSource yields the pair symbols supported by the reference venue
type ReferenceSource interface {
	ReferencePairs(ctx context.Context) (legality.ReferencePairs, error)
}
