// Package metrics holds the Prometheus collectors of the arbitrage service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fxarb"

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeEmpty     = "empty"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Metrics wraps the service collectors.
// A nil *Metrics is valid, and records nothing
type Metrics struct {
	graphBuilds        *prometheus.CounterVec
	graphBuildDuration prometheus.Histogram
	graphNodes         prometheus.Gauge
	graphEdges         prometheus.Gauge

	sourceFailures *prometheus.CounterVec

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	pathsFound     prometheus.Histogram

	ingestedRates *prometheus.CounterVec
}

// New creates the collectors, and registers them with the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		graphBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_builds_total",
				Help:      "Total number of rate graph builds",
			},
			[]string{"outcome"},
		),
		graphBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_build_duration_seconds",
				Help:      "Rate graph build duration, source fetches included",
				Buckets:   prometheus.DefBuckets,
			},
		),
		graphNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of currencies in the latest rate graph",
			},
		),
		graphEdges: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of directed edges in the latest rate graph",
			},
		),
		sourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_failures_total",
				Help:      "Total number of failed (absorbed) rate source fetches",
			},
			[]string{"source"},
		),
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of path searches",
			},
			[]string{"outcome"},
		),
		searchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Path search duration, graph build excluded",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		pathsFound: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_paths_found",
				Help:      "Number of legal paths found per search, before ranking",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		ingestedRates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingested_rates_total",
				Help:      "Total number of persisted exchange rates",
			},
			[]string{"source"},
		),
	}
}

// ObserveBuild records a graph build
func (m *Metrics) ObserveBuild(outcome string, took time.Duration, nodes, edges int) {
	if m == nil {
		return
	}

	m.graphBuilds.WithLabelValues(outcome).Inc()
	m.graphBuildDuration.Observe(took.Seconds())

	if outcome == OutcomeSuccess {
		m.graphNodes.Set(float64(nodes))
		m.graphEdges.Set(float64(edges))
	}
}

// SourceFailed records an absorbed source fetch failure
func (m *Metrics) SourceFailed(source string) {
	if m == nil {
		return
	}

	m.sourceFailures.WithLabelValues(source).Inc()
}

// ObserveSearch records a path search
func (m *Metrics) ObserveSearch(outcome string, took time.Duration, found int) {
	if m == nil {
		return
	}

	m.searches.WithLabelValues(outcome).Inc()

	if outcome != OutcomeSuccess {
		return
	}

	m.searchDuration.Observe(took.Seconds())
	m.pathsFound.Observe(float64(found))
}

// RateIngested records a persisted exchange rate
func (m *Metrics) RateIngested(source string) {
	if m == nil {
		return
	}

	m.ingestedRates.WithLabelValues(source).Inc()
}
