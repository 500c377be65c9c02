package storage

import (
	"context"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

// Storage is an abstraction over ingested exchange rate data
type Storage interface {
	// SaveExchangeRate saves the given exchange rate data point
	SaveExchangeRate(context.Context, *types.ExchangeRate) error

	// RateAsOf fetches the latest rates (per target, source and rate type)
	// for the query base, as of the given time
	RateAsOf(context.Context, *types.RateQuery, time.Time) (*types.Page[*types.ExchangeRate], error)

	// ListSources lists all present sources for fx rates
	ListSources(context.Context) ([]types.Source, error)

	// ListCurrencies lists all currencies present
	ListCurrencies(context.Context) ([]types.Currency, error)

	// Prune drops the data points effective before the given time,
	// returning the number of dropped points
	Prune(context.Context, time.Time) (int64, error)
}
