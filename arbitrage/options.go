package arbitrage

import (
	"log/slog"
	"time"

	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/metrics"
	"github.com/sig-0/fxarb/provider/currencies"
)

type Option func(s *Service)

// WithLogger specifies the logger for the service
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics specifies the metrics for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFee specifies the per-hop transaction fee
func WithFee(fee float64) Option {
	return func(s *Service) {
		s.fee = fee
	}
}

// WithMaxHops specifies the default path length bound
func WithMaxHops(n int) Option {
	return func(s *Service) {
		s.maxHops = n
	}
}

// WithTopResults specifies the default number of ranked results
func WithTopResults(n int) Option {
	return func(s *Service) {
		s.topResults = n
	}
}

// WithGraphTTL specifies for how long a built graph is reused.
// A zero TTL rebuilds the graph for every query
func WithGraphTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.graphTTL = ttl
	}
}

// WithUniverse specifies the currency universe
func WithUniverse(u *currencies.Universe) Option {
	return func(s *Service) {
		s.universe = u
	}
}

// WithClassifier specifies the legality classifier
func WithClassifier(c *legality.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}
