package types

import "time"

type Currency string

func (c Currency) String() string {
	return string(c)
}

type RateType string

const (
	RateTypeMID  RateType = "MID"
	RateTypeBUY  RateType = "BUY"
	RateTypeSELL RateType = "SELL"
)

func (r RateType) String() string {
	return string(r)
}

type Source string

const (
	SourceExchangeRateAPI Source = "ExchangeRateAPI" // https://www.exchangerate-api.com/
	SourceXRates          Source = "XRates"          // https://www.x-rates.com/
	SourceBinance         Source = "Binance"         // https://api.binance.com/
)

func (s Source) String() string {
	return string(s)
}

// Kind returns the market kind the source quotes
func (s Source) Kind() MarketKind {
	if s == SourceBinance {
		return MarketCrypto
	}

	return MarketFiat
}

// MarketKind separates fiat cross-rates from crypto ticker prices
type MarketKind string

const (
	MarketFiat   MarketKind = "fiat"
	MarketCrypto MarketKind = "crypto"
)

type ExchangeRate struct {
	AsOf      time.Time `json:"as_of"`
	FetchedAt time.Time `json:"fetched_at"`
	Base      Currency  `json:"base"`
	Target    Currency  `json:"target"`
	RateType  RateType  `json:"rate_type"`
	Source    Source    `json:"source"`
	Rate      float64   `json:"rate"`
}

// Pair is an ordered currency pair
type Pair struct {
	Base   Currency `json:"base"`
	Target Currency `json:"target"`
}

// Symbol returns the separator-less, upper-case pair symbol (ex. "BTCUSDT")
func (p Pair) Symbol() string {
	return p.Base.String() + p.Target.String()
}

// Reversed returns the pair in the opposite direction
func (p Pair) Reversed() Pair {
	return Pair{
		Base:   p.Target,
		Target: p.Base,
	}
}

func (p Pair) String() string {
	return p.Base.String() + "-" + p.Target.String()
}

// Ticker is a single crypto market price (1 base = Price target)
type Ticker struct {
	Pair  Pair    `json:"pair"`
	Price float64 `json:"price"`
}

type RateQuery struct {
	Target   *Currency `json:"target"`
	RateType *RateType `json:"rate_type"`
	Source   *Source   `json:"source"`
	Base     Currency  `json:"base"`
	Offset   int64     `json:"offset"`
	Limit    int32     `json:"limit"`
}

// Page wraps the results for pagination
type Page[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}
