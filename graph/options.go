package graph

import (
	"log/slog"

	"github.com/sig-0/fxarb/legality"
	"github.com/sig-0/fxarb/progress"
	"github.com/sig-0/fxarb/provider/currencies"
)

type Option func(b *Builder)

// WithLogger specifies the logger for the builder
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithFee specifies the proportional per-hop transaction fee.
// Defaults to DefaultFee
func WithFee(fee float64) Option {
	return func(b *Builder) {
		b.fee = fee
	}
}

// WithUniverse specifies the currency universe used for the fiat pass
func WithUniverse(u *currencies.Universe) Option {
	return func(b *Builder) {
		b.universe = u
	}
}

// WithClassifier specifies the legality classifier for edges
func WithClassifier(c *legality.Classifier) Option {
	return func(b *Builder) {
		b.classifier = c
	}
}

// WithObserver specifies the build milestone observer
func WithObserver(o progress.Observer) Option {
	return func(b *Builder) {
		b.observer = progress.OrNop(o)
	}
}
