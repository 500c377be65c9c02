package serve

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/cmd/sources"
	"github.com/sig-0/fxarb/ingest"
	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/server"
	"github.com/sig-0/fxarb/storage"
	"github.com/sig-0/fxarb/storage/types"
)

// run wires the ingest pipeline, the arbitrage service and the HTTP server
// over the given store, and runs them until the context is cancelled [BLOCKING]
func (c *serveCfg) run(ctx context.Context, logger *slog.Logger, store storage.Storage) error {
	var (
		universe = currencies.Default()
		live     = sources.NewLive(universe, c.sourceTimeout)
		arbCfg   = c.config.Arbitrage
	)

	// Set up the metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(registry)

	// The graph is built from the latest stored rates,
	// legality is checked against the live reference venue
	storeSource := arbitrage.NewStoreSource(store, universe)

	collector := arbitrage.NewCollector(
		storeSource,
		storeSource,
		live.Gemini,
		arbitrage.WithCollectorLogger(logger),
		arbitrage.WithCollectorMetrics(m),
		arbitrage.WithCollectorUniverse(universe),
	)

	service := arbitrage.New(
		collector,
		arbitrage.WithLogger(logger),
		arbitrage.WithMetrics(m),
		arbitrage.WithUniverse(universe),
		arbitrage.WithFee(arbCfg.Fee),
		arbitrage.WithMaxHops(arbCfg.MaxHops),
		arbitrage.WithTopResults(arbCfg.TopResults),
		arbitrage.WithGraphTTL(arbCfg.TTL()),
	)

	// Create the ingestion service
	orchestrator := ingest.New(
		store,
		ingest.WithLogger(logger),
		ingest.WithMetrics(m),
		ingest.WithRetention(c.retention),
		ingest.WithHook(func(string, []*types.ExchangeRate) {
			// Fresh rates, the next query rebuilds the graph
			service.Invalidate()
		}),
	)

	if !c.noIngest {
		logger.Info("registering ingest providers", "fiat_source", live.FiatName())

		for _, provider := range live.Providers() {
			if err := orchestrator.Register(provider); err != nil {
				return err
			}
		}
	}

	// Create the server instance
	s, err := server.New(
		store,
		service,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithGatherer(registry),
	)
	if err != nil {
		return err
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	if !c.noIngest {
		group.Go(func() error {
			return orchestrator.Start(gCtx)
		})
	}

	return group.Wait()
}
