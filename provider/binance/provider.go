package binance

import (
	"context"
	"errors"
	"time"

	"github.com/sig-0/fxarb/storage/types"
)

var errNoTickers = errors.New("no universe tickers found")

// Provider is the crypto ticker ingest job
type Provider struct {
	client *Client
}

// NewProvider creates a new ingest provider over the client
func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
	}
}

func (p *Provider) Name() string {
	return "Binance"
}

func (p *Provider) Interval() time.Duration {
	return time.Minute
}

func (p *Provider) Fetch(ctx context.Context) ([]*types.ExchangeRate, error) {
	tickers, err := p.client.Tickers(ctx)
	if err != nil {
		return nil, err
	}

	if len(tickers) == 0 {
		return nil, errNoTickers
	}

	var (
		fetchTime = time.Now().UTC()
		out       = make([]*types.ExchangeRate, 0, len(tickers))
	)

	for _, t := range tickers {
		out = append(out, &types.ExchangeRate{
			AsOf:      fetchTime,
			FetchedAt: fetchTime,
			Base:      t.Pair.Base,
			Target:    t.Pair.Target,
			RateType:  types.RateTypeMID,
			Source:    types.SourceBinance,
			Rate:      t.Price,
		})
	}

	return out, nil
}
