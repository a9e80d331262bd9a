// Package metrics provides the centralized Prometheus metrics registry for
// the simulation engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "simulations_total",
		Help:      "Total number of game simulations run, by data source tier",
	}, []string{"data_source"})
	SimulationFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "simulation_fallbacks_total",
		Help:      "Total number of latent-path failures that degraded to a fallback tier",
	}, []string{"reason"})
	PosteriorUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "posterior_updates_total",
		Help:      "Total number of per-game Bayesian posterior updates applied",
	})
	PosteriorClampsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "posterior_clamps_total",
		Help:      "Total number of posterior sigma entries clamped to the uncertainty bounds",
	})
	TrainingBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "training_batches_total",
		Help:      "Total number of contrastive pretraining batches, by status",
	}, []string{"status"})
	NegativeCacheRefreshesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "negative_cache_refreshes_total",
		Help:      "Total number of negative-sample cache refreshes",
	})
	LabelsComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtside",
		Name:      "labels_computed_total",
		Help:      "Total number of transition labels computed, by validity",
	}, []string{"status"})
)

// Gauge metrics
var (
	TrainingLoss = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "courtside",
		Name:      "training_loss",
		Help:      "Most recent pretraining loss value, by term",
	}, []string{"term"})
	NegativeCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "courtside",
		Name:      "negative_cache_size",
		Help:      "Current number of games in the negative-sample cache",
	})
	InfoNCEWeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "courtside",
		Name:      "infonce_weight",
		Help:      "Current annealed InfoNCE loss weight",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "courtside",
		Name:      "simulation_duration_seconds",
		Help:      "Wall time of a full N-iteration simulation call",
		Buckets:   prometheus.DefBuckets,
	})
	PosteriorUpdateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "courtside",
		Name:      "posterior_update_duration_seconds",
		Help:      "Wall time of one posterior update including persistence",
		Buckets:   prometheus.DefBuckets,
	})
)

// Registry returns the process-wide metrics registry, registering all engine
// metrics exactly once.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			SimulationsTotal,
			SimulationFallbacksTotal,
			PosteriorUpdatesTotal,
			PosteriorClampsTotal,
			TrainingBatchesTotal,
			NegativeCacheRefreshesTotal,
			LabelsComputedTotal,
			TrainingLoss,
			NegativeCacheSize,
			InfoNCEWeight,
			SimulationDuration,
			PosteriorUpdateDuration,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
