package search

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/cmd/env"
	"github.com/sig-0/fxarb/cmd/sources"
	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
	pathsearch "github.com/sig-0/fxarb/search"
	"github.com/sig-0/fxarb/storage/types"
)

var errMissingCurrencies = errors.New("both -from and -to are required")

// searchCfg wraps the search configuration
type searchCfg struct {
	from    string
	to      string
	amount  float64
	maxHops int
	top     int
	fee     float64
	timeout time.Duration
	loop    bool
	verbose bool
}

// NewSearchCmd creates the search subcommand
func NewSearchCmd() *ffcli.Command {
	cfg := &searchCfg{}

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "search",
		ShortUsage: "search -from USD -to EUR [flags]",
		LongHelp:   "Fetches live rates, and prints the best conversion paths",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *searchCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.from, "from", "", "the source currency")
	fs.StringVar(&c.to, "to", "", "the target currency")
	fs.Float64Var(&c.amount, "amount", 1000, "the amount of source currency")
	fs.IntVar(&c.maxHops, "max-hops", pathsearch.DefaultMaxHops, "the maximum number of trades in a path")
	fs.IntVar(&c.top, "top", pathsearch.DefaultTopResults, "the number of paths to print")
	fs.Float64Var(&c.fee, "fee", graph.DefaultFee, "the per-trade fee fraction")
	fs.DurationVar(&c.timeout, "timeout", arbitrage.DefaultFetchTimeout, "the per-request rate fetch timeout")
	fs.BoolVar(&c.loop, "loop", false, "allow -from == -to (arbitrage loop search)")
	fs.BoolVar(&c.verbose, "verbose", false, "log the rate fetches to stderr")
}

func (c *searchCfg) exec(ctx context.Context, _ []string) error {
	if c.from == "" || c.to == "" {
		return errMissingCurrencies
	}

	// Load .env, for the ExchangeRate-API key
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	var (
		universe = currencies.Default()
		live     = sources.NewLive(universe, c.timeout)
	)

	collector := arbitrage.NewCollector(
		live.Fiat(),
		live.Binance,
		live.Gemini,
		arbitrage.WithCollectorLogger(logger),
		arbitrage.WithCollectorUniverse(universe),
		arbitrage.WithFetchTimeout(c.timeout),
	)

	service := arbitrage.New(
		collector,
		arbitrage.WithLogger(logger),
		arbitrage.WithUniverse(universe),
		arbitrage.WithFee(c.fee),
	)

	observer := progress.Func(func(e progress.Event) {
		if e.Message != "" {
			_, _ = fmt.Fprintln(os.Stderr, e.Message)
		}
	})

	result, err := service.Search(
		ctx,
		arbitrage.Query{
			Source:    types.Currency(c.from),
			Target:    types.Currency(c.to),
			Amount:    c.amount,
			MaxHops:   c.maxHops,
			Top:       c.top,
			AllowLoop: c.loop,
		},
		observer,
	)
	if err != nil {
		return fmt.Errorf("unable to search paths, %w", err)
	}

	return writeResult(os.Stdout, result)
}

// writeResult prints the ranked quotes as a table
func writeResult(w io.Writer, result *arbitrage.Result) error {
	q := result.Query

	if len(result.Quotes) == 0 {
		_, err := fmt.Fprintf(
			w,
			"No legal path from %s to %s within %d hops\n",
			q.Source,
			q.Target,
			q.MaxHops,
		)

		return err
	}

	loop := q.Source == q.Target

	_, _ = fmt.Fprintf(
		w,
		"%d of %d paths, %s %s → %s (graph: %d currencies, %d edges)\n\n",
		len(result.Quotes),
		result.Found,
		formatAmount(q.Amount),
		q.Source,
		q.Target,
		result.Graph.Nodes,
		result.Graph.Edges,
	)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "#\tPATH\tMULTIPLIER\tAMOUNT"
	if loop {
		header += "\tPROFIT"
	}

	_, _ = fmt.Fprintln(tw, header)

	for i, quote := range result.Quotes {
		line := fmt.Sprintf(
			"%d\t%s\t%.6f\t%s %s",
			i+1,
			formatPath(quote.Path),
			quote.Multiplier,
			quote.FinalAmount.StringFixed(2),
			q.Target,
		)

		if loop && quote.Profit != nil {
			line += "\t" + quote.Profit.StringFixed(2)
		}

		_, _ = fmt.Fprintln(tw, line)
	}

	return tw.Flush()
}

func formatPath(path []types.Currency) string {
	parts := make([]string, 0, len(path))
	for _, c := range path {
		parts = append(parts, c.String())
	}

	return strings.Join(parts, " → ")
}

func formatAmount(amount float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", amount), "0"), ".")
}
