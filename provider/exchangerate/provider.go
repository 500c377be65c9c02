package exchangerate

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
	return fmt.Sprintf("ExchangeRate-API (%s)", p.base)
}

func (p *Provider) Interval() time.Duration {
	return time.Hour // the free tier refreshes hourly
}

func (p *Provider) Fetch(ctx context.Context) ([]*types.ExchangeRate, error) {
	resp, err := p.client.latest(ctx, p.base)
	if err != nil {
		return nil, err
	}

	var (
		fetchTime = time.Now().UTC()
		asOf      = fetchTime
	)

	if resp.LastUpdateUnix > 0 {
		asOf = time.Unix(resp.LastUpdateUnix, 0).UTC()
	}

	var (
		rates = p.client.filter(p.base, resp.ConversionRates)
		out   = make([]*types.ExchangeRate, 0, len(rates))
	)

	// Universe order keeps the output stable
	for _, target := range p.client.universe.Fiat() {
		rate, ok := rates[target]
		if !ok {
			continue
		}

		out = append(out, &types.ExchangeRate{
			AsOf:      asOf,
			FetchedAt: fetchTime,
			Base:      p.base,
			Target:    target,
			RateType:  types.RateTypeMID,
			Source:    types.SourceExchangeRateAPI,
			Rate:      rate,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no rates found for %s", p.base)
	}

	return out, nil
}
