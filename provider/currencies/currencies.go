package currencies

import (
	"slices"
	"strings"

	"github.com/sig-0/fxarb/storage/types"
)

var (
	USD types.Currency = "USD"
	AED types.Currency = "AED"
	INR types.Currency = "INR"
	EUR types.Currency = "EUR"
	GBP types.Currency = "GBP"
	JPY types.Currency = "JPY"
	CHF types.Currency = "CHF"

	BTC  types.Currency = "BTC"
	ETH  types.Currency = "ETH"
	BNB  types.Currency = "BNB"
	XRP  types.Currency = "XRP"
	USDT types.Currency = "USDT"

	// Outside the default universe, referenced by the deny-list
	RUB types.Currency = "RUB"
	IRR types.Currency = "IRR"
)

// Universe is the closed set of currencies the graph is built over.
// Fiat and crypto codes are kept in their configured order,
// which drives the (deterministic) graph construction order
type Universe struct {
	fiat   []types.Currency
	crypto []types.Currency
	all    map[types.Currency]struct{}
}

// NewUniverse creates a new universe from the given fiat and crypto codes.
// Codes are upper-cased, and duplicates are dropped
func NewUniverse(fiat, crypto []types.Currency) *Universe {
	u := &Universe{
		fiat:   make([]types.Currency, 0, len(fiat)),
		crypto: make([]types.Currency, 0, len(crypto)),
		all:    make(map[types.Currency]struct{}, len(fiat)+len(crypto)),
	}

	add := func(dst *[]types.Currency, c types.Currency) {
		c = Normalize(c.String())
		if c == "" {
			return
		}

		if _, seen := u.all[c]; seen {
			return
		}

		u.all[c] = struct{}{}
		*dst = append(*dst, c)
	}

	for _, c := range fiat {
		add(&u.fiat, c)
	}

	for _, c := range crypto {
		add(&u.crypto, c)
	}

	return u
}

// Default returns the default currency universe
func Default() *Universe {
	return NewUniverse(
		[]types.Currency{USD, AED, INR, EUR, GBP, JPY, CHF},
		[]types.Currency{BTC, ETH, BNB, XRP, USDT},
	)
}

// Fiat returns the fiat currencies, in configured order
func (u *Universe) Fiat() []types.Currency {
	return slices.Clone(u.fiat)
}

// Crypto returns the crypto currencies, in configured order
func (u *Universe) Crypto() []types.Currency {
	return slices.Clone(u.crypto)
}

// All returns the fiat currencies followed by the crypto currencies
func (u *Universe) All() []types.Currency {
	return slices.Concat(u.fiat, u.crypto)
}

// Contains checks if the currency is part of the universe (exact match)
func (u *Universe) Contains(c types.Currency) bool {
	_, ok := u.all[c]

	return ok
}

// IsFiat checks if the currency is a configured fiat currency
func (u *Universe) IsFiat(c types.Currency) bool {
	return slices.Contains(u.fiat, c)
}

// Split decomposes a separator-less pair symbol (ex. "BTCUSDT")
// into its two distinct, known currency codes
func (u *Universe) Split(symbol string) (types.Currency, types.Currency, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	for i := 1; i < len(symbol); i++ {
		base, quote := types.Currency(symbol[:i]), types.Currency(symbol[i:])

		if base == quote {
			continue
		}

		if u.Contains(base) && u.Contains(quote) {
			return base, quote, true
		}
	}

	return "", "", false
}

// Normalize trims and upper-cases the currency code
func Normalize(code string) types.Currency {
	return types.Currency(strings.ToUpper(strings.TrimSpace(code)))
}
