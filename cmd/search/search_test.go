package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/provider/currencies"
	pathsearch "github.com/sig-0/fxarb/search"
	"github.com/sig-0/fxarb/storage/types"
)

func TestWriteResult(t *testing.T) {
	t.Parallel()

	t.Run("no paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		require.NoError(t, writeResult(&buf, &arbitrage.Result{
			Query: arbitrage.Query{
				Source:  currencies.INR,
				Target:  currencies.BTC,
				MaxHops: 1,
			},
		}))

		assert.Equal(t, "No legal path from INR to BTC within 1 hops\n", buf.String())
	})

	t.Run("ranked table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		require.NoError(t, writeResult(&buf, &arbitrage.Result{
			Query: arbitrage.Query{
				Source:  currencies.USD,
				Target:  currencies.EUR,
				Amount:  1000,
				MaxHops: 3,
			},
			Quotes: []arbitrage.Quote{
				{
					PathResult: pathsearch.PathResult{
						Path:       []types.Currency{currencies.USD, currencies.EUR},
						Multiplier: 0.9191,
					},
					FinalAmount: decimal.RequireFromString("919.1"),
				},
				{
					PathResult: pathsearch.PathResult{
						Path:       []types.Currency{currencies.USD, currencies.GBP, currencies.EUR},
						Multiplier: 0.91,
					},
					FinalAmount: decimal.RequireFromString("910"),
				},
			},
			Found: 7,
			Graph: graph.Stats{Nodes: 12, Edges: 90},
		}))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)

		assert.Equal(t, "2 of 7 paths, 1000 USD → EUR (graph: 12 currencies, 90 edges)", lines[0])
		assert.Empty(t, lines[1])
		assert.Equal(t, []string{"#", "PATH", "MULTIPLIER", "AMOUNT"}, strings.Fields(lines[2]))
		assert.Contains(t, lines[3], "USD → EUR")
		assert.Contains(t, lines[3], "0.919100")
		assert.Contains(t, lines[3], "919.10 EUR")
		assert.Contains(t, lines[4], "USD → GBP → EUR")
		assert.NotContains(t, buf.String(), "PROFIT")
	})

	t.Run("loop profit column", func(t *testing.T) {
		t.Parallel()

		var (
			buf    bytes.Buffer
			profit = decimal.RequireFromString("12.345")
		)

		require.NoError(t, writeResult(&buf, &arbitrage.Result{
			Query: arbitrage.Query{
				Source:    currencies.USD,
				Target:    currencies.USD,
				Amount:    1000,
				AllowLoop: true,
			},
			Quotes: []arbitrage.Quote{{
				PathResult: pathsearch.PathResult{
					Path:       []types.Currency{currencies.USD, currencies.EUR, currencies.USD},
					Multiplier: 1.012345,
				},
				FinalAmount: decimal.RequireFromString("1012.345"),
				Profit:      &profit,
			}},
			Found: 1,
		}))

		out := buf.String()

		assert.Contains(t, out, "PROFIT")
		assert.Contains(t, out, "12.35")
		assert.Contains(t, out, "USD → EUR → USD")
	})
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1000", formatAmount(1000))
	assert.Equal(t, "0.5", formatAmount(0.5))
	assert.Equal(t, "12.345678", formatAmount(12.345678))
}
