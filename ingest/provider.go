package ingest

import (
	"context"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

// Provider is a single exchange rate provider job (one base, or one venue)
type Provider interface {
	// Name returns the human-readable name of the provider
	Name() string

	// Interval returns the interval at which the provider should be called
	Interval() time.Duration

	// Fetch is the provider's main fetch job, yielding exchange rate data points
	Fetch(context.Context) ([]*types.ExchangeRate, error)
}

// Hook is called after a provider's rates have been persisted
type Hook func(provider string, saved []*types.ExchangeRate)
