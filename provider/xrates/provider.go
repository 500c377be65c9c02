package xrates

import (
	"context"
	"fmt"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

// Provider is the ingest job for a single fiat base currency
type Provider struct {
	client *Client
	base   types.Currency
}

// NewProvider creates a new ingest provider for the base currency
func NewProvider(client *Client, base types.Currency) *Provider {
	return &Provider{
		client: client,
		base:   base,
	}
}

func (p *Provider) Name() string {
	return fmt.Sprintf("X-Rates (%s)", p.base)
}

func (p *Provider) Interval() time.Duration {
	return time.Hour
}

func (p *Provider) Fetch(ctx context.Context) ([]*types.ExchangeRate, error) {
	rates, err := p.client.FiatRates(ctx, p.base)
	if err != nil {
		return nil, err
	}

	var (
		fetchTime = time.Now().UTC()
		out       = make([]*types.ExchangeRate, 0, len(rates))
	)

	for _, target := range p.client.universe.Fiat() {
		rate, ok := rates[target]
		if !ok {
			continue
		}

		out = append(out, &types.ExchangeRate{
			AsOf:      fetchTime, // the table carries no reliable timestamp
			FetchedAt: fetchTime,
			Base:      p.base,
			Target:    target,
			RateType:  types.RateTypeMID,
			Source:    types.SourceXRates,
			Rate:      rate,
		})
	}

	return out, nil
}
