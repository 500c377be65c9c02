package arbitrage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// DefaultFetchTimeout is the bound applied to every individual source fetch
const DefaultFetchTimeout = 5 * time.Second

// Collector fetches every rate source concurrently.
// A failed or timed out fetch yields no data, and never fails the collection
type Collector struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	fiat      FiatSource
	crypto    CryptoSource
	reference ReferenceSource

	universe *currencies.Universe
	timeout  time.Duration
}

// CollectorOption configures the collector
type CollectorOption func(c *Collector)

// WithCollectorLogger specifies the logger for the collector
func WithCollectorLogger(l *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = l
	}
}

// WithCollectorMetrics specifies the metrics for the collector
func WithCollectorMetrics(m *metrics.Metrics) CollectorOption {
	return func(c *Collector) {
		c.metrics = m
	}
}

// WithFetchTimeout specifies the per-fetch timeout. Defaults to DefaultFetchTimeout
func WithFetchTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.timeout = d
	}
}

// WithCollectorUniverse specifies the universe whose fiat bases are fetched
func WithCollectorUniverse(u *currencies.Universe) CollectorOption {
	return func(c *Collector) {
		c.universe = u
	}
}

// NewCollector creates a new source collector. Any of the sources can be nil,
// in which case it contributes no data
func NewCollector(
	fiat FiatSource,
	crypto CryptoSource,
	reference ReferenceSource,
	opts ...CollectorOption,
) *Collector {
	c := &Collector{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		fiat:      fiat,
		crypto:    crypto,
		reference: reference,
		universe:  currencies.Default(),
		timeout:   DefaultFetchTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect fetches all sources. The results are merged by source type,
// independently of the completion order
func (c *Collector) Collect(
	ctx context.Context,
	observer progress.Observer,
) (graph.RateSources, legality.ReferencePairs) {
	observer = progress.OrNop(observer)

	var (
		bases     = c.universe.Fiat()
		fiatRates = make([]map[types.Currency]float64, len(bases))
		tickers   []types.Ticker
		reference = legality.ReferencePairs{}
	)

	// Every goroutine writes to its own slot, and never returns an error
	group, gCtx := errgroup.WithContext(ctx)

	observer.Notify(progress.Event{Message: "Fetching fiat exchange rates..."})

	if c.fiat != nil {
		for i, base := range bases {
			group.Go(func() error {
				fiatRates[i] = c.fetchFiat(gCtx, base)

				return nil
			})
		}
	}

	observer.Notify(progress.Event{Message: "Fetching legal reference pairs..."})

	if c.reference != nil {
		group.Go(func() error {
			reference = c.fetchReference(gCtx)

			return nil
		})
	}

	observer.Notify(progress.Event{Message: "Fetching crypto exchange rates..."})

	if c.crypto != nil {
		group.Go(func() error {
			tickers = c.fetchTickers(gCtx)

			return nil
		})
	}

	_ = group.Wait() //nolint:errcheck // goroutines never fail

	sources := graph.RateSources{
		Fiat:   make(map[types.Currency]map[types.Currency]float64, len(bases)),
		Crypto: tickers,
	}

	for i, base := range bases {
		if len(fiatRates[i]) == 0 {
			continue
		}

		sources.Fiat[base] = fiatRates[i]
	}

	return sources, reference
}

func (c *Collector) fetchFiat(ctx context.Context, base types.Currency) map[types.Currency]float64 {
	fetchCtx, cancelFn := context.WithTimeout(ctx, c.timeout)
	defer cancelFn()

	rates, err := c.fiat.FiatRates(fetchCtx, base)
	if err != nil {
		c.logger.Warn(
			"unable to fetch fiat rates",
			"base", base,
			"err", err,
		)

		c.metrics.SourceFailed("fiat")

		return nil
	}

	return rates
}

func (c *Collector) fetchTickers(ctx context.Context) []types.Ticker {
	fetchCtx, cancelFn := context.WithTimeout(ctx, c.timeout)
	defer cancelFn()

	tickers, err := c.crypto.Tickers(fetchCtx)
	if err != nil {
		c.logger.Warn(
			"unable to fetch crypto rates",
			"err", err,
		)

		c.metrics.SourceFailed("crypto")

		return nil
	}

	return tickers
}

func (c *Collector) fetchReference(ctx context.Context) legality.ReferencePairs {
	fetchCtx, cancelFn := context.WithTimeout(ctx, c.timeout)
	defer cancelFn()

	pairs, err := c.reference.ReferencePairs(fetchCtx)
	if err != nil || pairs == nil {
		if err != nil {
			c.logger.Warn(
				"unable to fetch reference pairs",
				"err", err,
			)

			c.metrics.SourceFailed("reference")
		}

		return legality.ReferencePairs{}
	}

	return pairs
}
