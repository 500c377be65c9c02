// Package gemini fetches the pair symbols listed on the Gemini exchange,
// used as the reference set for pair legality
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sig-0/fxarb/legality"
)

// DefaultURL is the Gemini public API root
const DefaultURL = "https://api.gemini.com"

// Client fetches the listed Gemini symbols
type Client struct {
	client *http.Client
	url    string
}

type Option func(*Client)

// WithURL sets the API root URL
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// New creates a new Gemini symbols client
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		url: DefaultURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ReferencePairs returns the listed pair symbols (ex. "btcusd" as "BTCUSD")
func (c *Client) ReferencePairs(ctx context.Context) (legality.ReferencePairs, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/v1/symbols", http.NoBody)
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

	var symbols []string
	if err = json.NewDecoder(resp.Body).Decode(&symbols); err != nil {
		return nil, fmt.Errorf("unable to decode response: %w", err)
	}

	return legality.NewReferencePairs(symbols...), nil
}
