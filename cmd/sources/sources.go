// Package sources assembles the upstream rate providers used by the commands
package sources

import (
	"os"
	"time"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/cmd/env"
	"github.com/sig-0/fxarb/ingest"
	"github.com/sig-0/fxarb/provider/binance"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/provider/exchangerate"
	"github.com/sig-0/fxarb/provider/gemini"
	"github.com/sig-0/fxarb/provider/xrates"
)

// Live holds the upstream clients
type Live struct {
	universe *currencies.Universe

	exchangeRate *exchangerate.Client // nil when no API key is set
	xRates       *xrates.Client

	Binance *binance.Client
	Gemini  *gemini.Client
}

// NewLive creates the upstream clients over the universe.
// The ExchangeRate-API key is read from the environment
func NewLive(universe *currencies.Universe, timeout time.Duration) *Live {
	l := &Live{
		universe: universe,
		xRates:   xrates.New(timeout, xrates.WithUniverse(universe)),
		Binance:  binance.New(timeout, binance.WithUniverse(universe)),
		Gemini:   gemini.New(timeout),
	}

	if key := os.Getenv(env.Prefix + env.ExchangeRateKeySuffix); key != "" {
		l.exchangeRate = exchangerate.New(key, timeout, exchangerate.WithUniverse(universe))
	}

	return l
}

// Fiat returns the fiat rate source: the ExchangeRate-API if a key is set,
// the x-rates.com scraper otherwise
func (l *Live) Fiat() arbitrage.FiatSource {
	if l.exchangeRate != nil {
		return l.exchangeRate
	}

	return l.xRates
}

// FiatName returns the name of the active fiat source
func (l *Live) FiatName() string {
	if l.exchangeRate != nil {
		return "ExchangeRate-API"
	}

	return "X-Rates"
}

// Providers returns the ingest jobs: one per fiat base currency,
// and the crypto ticker job
func (l *Live) Providers() []ingest.Provider {
	fiat := l.universe.Fiat()
	providers := make([]ingest.Provider, 0, len(fiat)+1)

	for _, base := range fiat {
		if l.exchangeRate != nil {
			providers = append(providers, exchangerate.NewProvider(l.exchangeRate, base))

			continue
		}

		providers = append(providers, xrates.NewProvider(l.xRates, base))
	}

	return append(providers, binance.NewProvider(l.Binance))
}
