package arbitrage

import "errors"

var (
	ErrSameCurrency    = errors.New("source and target currencies are the same")
	ErrUnknownCurrency = errors.New("currency is not supported")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidMaxHops  = errors.New("invalid max hops")
	ErrInvalidTop      = errors.New("invalid result count")

	// ErrEmptyGraph is returned when no exchange data could be gathered from any source
	ErrEmptyGraph = errors.New("could not build exchange data")
)
