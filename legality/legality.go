// Package legality decides whether a directed currency conversion is permitted.
//
// The policy is explicit and auditable, evaluated in order (first match wins):
//
//  1. the pair symbol (ex. "BTCUSD") is listed by the reference venue: legal
//  2. the ordered pair is on the static deny-list: illegal
//  3. both currencies belong to the configured universe: legal
//  4. otherwise: illegal
package legality

import (
	"strings"

	"github.com/sig-0/fxarb/provider/currencies"
	"github.com/sig-0/fxarb/storage/types"
)

// ReferencePairs is the set of upper-case pair symbols
// supported by the reference venue
type ReferencePairs map[string]struct{}

// NewReferencePairs creates a reference set from raw venue symbols
func NewReferencePairs(symbols ...string) ReferencePairs {
	pairs := make(ReferencePairs, len(symbols))

	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}

		pairs[s] = struct{}{}
	}

	return pairs
}

// Has checks if the symbol is listed (case-insensitive)
func (r ReferencePairs) Has(symbol string) bool {
	_, ok := r[strings.ToUpper(symbol)]

	return ok
}

// DefaultDenyList returns the pairs known to be restricted
func DefaultDenyList() []types.Pair {
	return []types.Pair{
		{Base: currencies.AED, Target: currencies.XRP},
		{Base: currencies.XRP, Target: currencies.AED},
		{Base: currencies.INR, Target: currencies.BTC},
		{Base: currencies.BTC, Target: currencies.INR},
		{Base: currencies.INR, Target: currencies.ETH},
		{Base: currencies.ETH, Target: currencies.INR},
		{Base: currencies.IRR, Target: currencies.BTC},
		{Base: currencies.BTC, Target: currencies.IRR},
		{Base: currencies.RUB, Target: currencies.USD},
		{Base: currencies.USD, Target: currencies.RUB},
	}
}

// Classifier is the pair legality policy. It holds no mutable state,
// and is safe for concurrent use
type Classifier struct {
	universe *currencies.Universe
	denied   map[types.Pair]struct{}
}

// NewClassifier creates a new classifier over the given universe and deny-list
func NewClassifier(universe *currencies.Universe, denyList []types.Pair) *Classifier {
	denied := make(map[types.Pair]struct{}, len(denyList))
	for _, p := range denyList {
		denied[p] = struct{}{}
	}

	return &Classifier{
		universe: universe,
		denied:   denied,
	}
}

// NewDefaultClassifier creates a classifier with the default universe and deny-list
func NewDefaultClassifier() *Classifier {
	return NewClassifier(currencies.Default(), DefaultDenyList())
}

// IsLegal checks if converting src into dst is permitted
func (c *Classifier) IsLegal(src, dst types.Currency, reference ReferencePairs) bool {
	pair := types.Pair{Base: src, Target: dst}

	if reference.Has(pair.Symbol()) {
		return true
	}

	if _, denied := c.denied[pair]; denied {
		return false
	}

	return c.universe.Contains(src) && c.universe.Contains(dst)
}

// Denied checks if the ordered pair is on the deny-list
func (c *Classifier) Denied(src, dst types.Currency) bool {
	_, denied := c.denied[types.Pair{Base: src, Target: dst}]

	return denied
}
