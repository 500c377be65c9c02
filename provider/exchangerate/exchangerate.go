//nolint:tagliatelle // ExchangeRate-API uses snake case
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// DefaultURL is the ExchangeRate-API v6 endpoint
const DefaultURL = "https://v6.exchangerate-api.com"

// latestResponse is the /latest/{base} response from the ExchangeRate-API
type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	LastUpdateUnix  int64              `json:"time_last_update_unix"`
}

// Client fetches fiat cross-rates from the ExchangeRate-API
type Client struct {
	client   *http.Client
	universe *currencies.Universe
	url      string
	apiKey   string
}

type Option func(*Client)

// WithURL sets the API base URL
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithUniverse sets the currency universe the rates are filtered to
func WithUniverse(u *currencies.Universe) Option {
	return func(c *Client) {
		c.universe = u
	}
}

// New creates a new ExchangeRate-API client
func New(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		universe: currencies.Default(),
		url:      DefaultURL,
		apiKey:   apiKey,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FiatRates returns the base's cross-rates to the other universe fiat currencies
func (c *Client) FiatRates(
	ctx context.Context,
	base types.Currency,
) (map[types.Currency]float64, error) {
	resp, err := c.latest(ctx, base)
	if err != nil {
		return nil, err
	}

	return c.filter(base, resp.ConversionRates), nil
}

// latest fetches the latest conversion rates for the base currency
func (c *Client) latest(ctx context.Context, base types.Currency) (*latestResponse, error) {
	url := fmt.Sprintf("%s/v6/%s/latest/%s", c.url, c.apiKey, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
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

	var latest latestResponse
	if err = json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	if latest.Result != "success" {
		return nil, fmt.Errorf("request for %s failed: %s", base, latest.ErrorType)
	}

	return &latest, nil
}

// filter keeps the universe fiat targets, excluding the base itself
func (c *Client) filter(base types.Currency, raw map[string]float64) map[types.Currency]float64 {
	rates := make(map[types.Currency]float64, len(raw))

	for code, rate := range raw {
		target := currencies.Normalize(code)

		if target == base || !c.universe.IsFiat(target) {
			continue
		}

		rates[target] = rate
	}

	return rates
}
