package ingest

import (
	"log/slog"
	"time"

	"github.com/sig-0/fxarb/metrics"
)

type Option func(o *Orchestrator)

// WithLogger specifies the logger for the orchestrator
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithQueryInterval specifies query interval for the orchestrator's jobs.
// Defaults to 1s.
// This should only be modified if the registered providers with the orchestrator
// have sparse runs (once every hour / 24hrs)
func WithQueryInterval(q time.Duration) Option {
	return func(o *Orchestrator) {
		o.queryInterval = q
	}
}

// WithRetryDelay sets the first retry delay after a failed fetch.
// Consecutive failures double it, up to the provider interval
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.retryDelay = d
	}
}

// WithBufferSize sets the size of the worker response buffer
func WithBufferSize(size int) Option {
	return func(o *Orchestrator) {
		o.bufferSize = size
	}
}

// WithRetention enables periodic pruning of rates older than the retention window
func WithRetention(retention time.Duration) Option {
	return func(o *Orchestrator) {
		o.retention = retention
	}
}

// WithMetrics sets the ingest metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithHook registers a hook called after every persisted fetch
func WithHook(h Hook) Option {
	return func(o *Orchestrator) {
		o.hook = h
	}
}
