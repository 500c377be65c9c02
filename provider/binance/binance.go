package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// DefaultURL is the Binance spot API root
const DefaultURL = "https://api.binance.com"

// tickerPrice is a single /api/v3/ticker/price entry
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Client fetches spot ticker prices from Binance
type Client struct {
	client   *http.Client
	universe *currencies.Universe
	url      string
}

type Option func(*Client)

// WithURL sets the API root URL
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithUniverse sets the currency universe the symbols are decomposed over
func WithUniverse(u *currencies.Universe) Option {
	return func(c *Client) {
		c.universe = u
	}
}

// New creates a new Binance ticker client
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		universe: currencies.Default(),
		url:      DefaultURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Tickers returns the prices of all listed symbols made of two universe currencies.
// Symbols that cannot be decomposed, or carry an unparsable price, are skipped
func (c *Client) Tickers(ctx context.Context) ([]types.Ticker, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.url+"/api/v3/ticker/price",
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	var prices []tickerPrice
	if err = json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	tickers := make([]types.Ticker, 0, len(prices))

	for _, p := range prices {
		base, quote, ok := c.universe.Split(p.Symbol)
		if !ok {
			continue
		}

		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil || price <= 0 {
			continue
		}

		tickers = append(tickers, types.Ticker{
			Pair: types.Pair{
				Base:   base,
				Target: quote,
			},
			Price: price,
		})
	}

	return tickers, nil
}
