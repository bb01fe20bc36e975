// Package metrics provides Prometheus metrics for the prediction service.
// It covers model inference, feature building, categorical fallbacks and
// form submissions, exposed on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Model inference
	MLPredictions prometheus.Counter   // Total number of model predictions made
	MLFailures    prometheus.Counter   // Total number of failed model predictions
	MLTimeouts    prometheus.Counter   // Total number of model predictions that timed out
	MLLatency     prometheus.Histogram // Model prediction latency in seconds
	MLModelAge    prometheus.Gauge     // Age of the loaded model artifacts in seconds

	// Prediction outcomes
	PredictedPrice prometheus.Histogram // Distribution of predicted prices
	HighlyRated    prometheus.Counter   // Predictions classified as highly rated

	// Feature building
	FeatureErrors     prometheus.Counter     // Non-finite derived feature values
	UnknownCategories *prometheus.CounterVec // Categorical values that fell back to the sentinel code

	// Form shell
	Submissions prometheus.Counter // Total number of form submissions
	ErrorsTotal prometheus.Counter // Total number of failed submissions
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of model predictions made",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of failed model predictions",
		}),
		MLTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_timeouts_total",
			Help: "Total number of model predictions that timed out",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Model prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded model artifacts in seconds",
		}),
		PredictedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_price",
			Help:    "Distribution of predicted item prices",
			Buckets: prometheus.ExponentialBuckets(25, 2, 10),
		}),
		HighlyRated: factory.NewCounter(prometheus.CounterOpts{
			Name: "predicted_highly_rated_total",
			Help: "Total number of predictions classified as highly rated",
		}),
		FeatureErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "feature_errors_total",
			Help: "Total number of non-finite derived feature values",
		}),
		UnknownCategories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unknown_categories_total",
			Help: "Categorical values not found in the trained vocabulary",
		}, []string{"column"}),
		Submissions: factory.NewCounter(prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Total number of form submissions",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of failed submissions",
		}),
	}
}
