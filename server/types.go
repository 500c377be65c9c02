package server

import (
	"time"

	"github.com/sig-0/fxarb/arbitrage"
	"github.com/sig-0/fxarb/graph"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/storage/types"
)

// RateEdge is a stored rate, and the graph edge of the same pair.
// Edge is nil when the pair is not in the current graph
type RateEdge struct {
	*types.ExchangeRate

	Edge *graph.Edge `json:"edge"`
}

type RatesResponse struct {
	// Set when the rates were matched against a graph snapshot
	GraphBuiltAt *time.Time `json:"graph_built_at,omitempty"`

	Results []*RateEdge `json:"results"`
	Total   int64       `json:"total"`
}

// SourceInfo is a stored rate source, and the market it quotes
type SourceInfo struct {
	Name   types.Source     `json:"name"`
	Market types.MarketKind `json:"market"`
}

type SourcesResponse struct {
	Results []SourceInfo `json:"results"`
}

type CurrenciesResponse struct {
	// The configured search universe
	Fiat   []types.Currency `json:"fiat"`
	Crypto []types.Currency `json:"crypto"`

	// The universe members with stored rates
	Stored []types.Currency `json:"stored"`
}

type GraphResponse struct {
	graph.Stats

	BuiltAt time.Time `json:"built_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Stream message types
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is a single /v1/paths/stream message
type StreamMessage struct {
	Progress *progress.Event   `json:"progress,omitempty"`
	Result   *arbitrage.Result `json:"result,omitempty"`
	Type     string            `json:"type"`
	Error    string            `json:"error,omitempty"`
}
