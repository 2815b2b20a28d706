// Package metrics exposes prediction counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records serving metrics on its own registry.
type Collector struct {
	registry        *prometheus.Registry
	predictions     *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	inferenceFaults prometheus.Counter
	latency         prometheus.Histogram
	features        prometheus.Gauge
}

// NewCollector creates a collector with Go runtime and process metrics registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabetes_predictions_total",
				Help: "Total number of successful predictions by label",
			},
			[]string{"label"},
		),
		rejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diabetes_requests_rejected_total",
				Help: "Total number of prediction requests rejected as malformed",
			},
			[]string{"reason"},
		),
		inferenceFaults: f.NewCounter(
			prometheus.CounterOpts{
				Name: "diabetes_inference_faults_total",
				Help: "Total number of predictions that failed inside the scaler or classifier",
			},
		),
		latency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "diabetes_prediction_duration_seconds",
				Help:    "Scaler plus classifier latency in seconds",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),
		features: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "diabetes_model_features",
				Help: "Feature count the loaded artifacts were fitted on",
			},
		),
	}
}

// RecordPrediction records a successful prediction.
func (c *Collector) RecordPrediction(label int, d time.Duration) {
	c.predictions.WithLabelValues(strconv.Itoa(label)).Inc()
	c.latency.Observe(d.Seconds())
}

// RecordRejected records a malformed request.
func (c *Collector) RecordRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

// RecordInferenceFault records a scaler or classifier failure.
func (c *Collector) RecordInferenceFault() {
	c.inferenceFaults.Inc()
}

// SetFeatureCount publishes the loaded artifacts' feature count.
func (c *Collector) SetFeatureCount(n int) {
	c.features.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
