package arbitrage

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/search"
	"github.com/sig-0/fxarb/storage/types"
)

// MaxHopsLimit bounds the configurable path length.
// The search is exponential in the hop count
const MaxHopsLimit = 6

// MaxTopResults bounds the number of ranked results a query can request
const MaxTopResults = 50

// amountPlaces is the precision of quoted amounts
const amountPlaces = 6

// Query is a single path search request
type Query struct {
	Source types.Currency `json:"source"`
	Target types.Currency `json:"target"`
	Amount float64        `json:"amount"`

	// MaxHops and Top fall back to the service defaults when 0
	MaxHops int `json:"max_hops"`
	Top     int `json:"top"`

	// AllowLoop permits Source == Target (arbitrage loop detection)
	AllowLoop bool `json:"allow_loop"`
}

// validate normalizes the query and checks it, before any search is attempted
func (q Query) validate(universe *currencies.Universe, defaultHops, defaultTop int) (Query, error) {
	q.Source = currencies.Normalize(q.Source.String())
	q.Target = currencies.Normalize(q.Target.String())

	if !universe.Contains(q.Source) {
		return q, fmt.Errorf("%w: %q", ErrUnknownCurrency, q.Source)
	}

	if !universe.Contains(q.Target) {
		return q, fmt.Errorf("%w: %q", ErrUnknownCurrency, q.Target)
	}

	if q.Source == q.Target && !q.AllowLoop {
		return q, ErrSameCurrency
	}

	if q.Amount <= 0 || math.IsNaN(q.Amount) || math.IsInf(q.Amount, 0) {
		return q, ErrInvalidAmount
	}

	if q.MaxHops == 0 {
		q.MaxHops = defaultHops
	}

	if q.MaxHops < 1 || q.MaxHops > MaxHopsLimit {
		return q, fmt.Errorf("%w: must be within [1, %d]", ErrInvalidMaxHops, MaxHopsLimit)
	}

	if q.Top == 0 {
		q.Top = defaultTop
	}

	if q.Top < 1 || q.Top > MaxTopResults {
		return q, fmt.Errorf("%w: must be within [1, %d]", ErrInvalidTop, MaxTopResults)
	}

	return q, nil
}

// Quote is a ranked path, priced for the query amount
type Quote struct {
	search.PathResult

	// FinalAmount is the target amount obtained for the query amount
	FinalAmount decimal.Decimal `json:"final_amount"`

	// Profit is FinalAmount minus the query amount, only set for loops
	Profit *decimal.Decimal `json:"profit,omitempty"`
}

// newQuote prices the path result for the given amount
func newQuote(r search.PathResult, amount float64, loop bool) Quote {
	var (
		start = decimal.NewFromFloat(amount)
		final = start.Mul(decimal.NewFromFloat(r.Multiplier)).Round(amountPlaces)
	)

	q := Quote{
		PathResult:  r,
		FinalAmount: final,
	}

	if loop {
		profit := final.Sub(start).Round(amountPlaces)
		q.Profit = &profit
	}

	return q
}
