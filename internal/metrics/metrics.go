// Package metrics exposes Prometheus collectors for the prediction pipeline
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accident"

// Scoring paths
const (
	PathModel    = "model"
	PathFallback = "fallback"
)

// Metrics holds every collector on its own registry
type Metrics struct {
	PointsScored       *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	Enrichment         *prometheus.CounterVec
	DatasetReloads     *prometheus.CounterVec
	Retrains           *prometheus.CounterVec
	WeatherFailures    prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		PointsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_scored_total",
			Help:      "Grid points scored, by scoring path.",
		}, []string{"path"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time to answer a hotspot prediction.",
			Buckets:   prometheus.DefBuckets,
		}),
		Enrichment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Historical enrichment attempts, by outcome.",
		}, []string{"outcome"}),
		DatasetReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Feature table reloads, by result.",
		}, []string{"result"}),
		Retrains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrains_total",
			Help:      "Model training runs, by result.",
		}, []string{"result"}),
		WeatherFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_failures_total",
			Help:      "Weather lookups that ended as unknown.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.PointsScored,
		m.PredictionDuration,
		m.Enrichment,
		m.DatasetReloads,
		m.Retrains,
		m.WeatherFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Result maps an error to a result label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
