// Package xrates scrapes fiat cross-rates from the x-rates.com rate tables.
//
// The table for a base currency lives at /table/?from={base}&amount=1,
// with one row per target currency. The target code is not printed,
// and is taken from the rate link (/graph/?from=USD&to=EUR)
package xrates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// DefaultURL is the x-rates.com site root
const DefaultURL = "https://www.x-rates.com"

var errInvalidRate = errors.New("invalid rate")

// Client is the x-rates.com rate table scraper
type Client struct {
	client   *http.Client
	universe *currencies.Universe
	url      string
}

type Option func(*Client)

// WithURL sets the site root URL
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

// New creates a new x-rates.com scraper
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

// FiatRates returns the base's cross-rates to the other universe fiat currencies
func (c *Client) FiatRates(
	ctx context.Context,
	base types.Currency,
) (map[types.Currency]float64, error) {
	// Prepare the request
	endpoint := fmt.Sprintf("%s/table/?from=%s&amount=1", c.url, url.QueryEscape(base.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	// Execute the request
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invalid status code received: %d", resp.StatusCode)
	}

	// Construct document for parsing
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to construct query doc: %w", err)
	}

	rates := make(map[types.Currency]float64)

	doc.Find("table.tablesorter tbody tr").Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find("td.rtRates a").First()

		href, ok := link.Attr("href")
		if !ok {
			return
		}

		target, ok := targetFromLink(href)
		if !ok || target == base || !c.universe.IsFiat(target) {
			return
		}

		rate, err := parseRate(link.Text())
		if err != nil {
			return
		}

		rates[target] = rate
	})

	if len(rates) == 0 {
		return nil, fmt.Errorf("no rate rows found for %s", base)
	}

	return rates, nil
}

// targetFromLink extracts the "to" currency from a rate graph link
func targetFromLink(href string) (types.Currency, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	to := currencies.Normalize(u.Query().Get("to"))
	if to == "" {
		return "", false
	}

	return to, true
}

// parseRate parses a table rate value (ex. "1,452.110000")
func parseRate(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %q: %w", raw, err)
	}

	if rate <= 0 {
		return 0, errInvalidRate
	}

	return rate, nil
}
