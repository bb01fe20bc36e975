// Package ml runs the two externally trained models (price regressor and
// rating classifier) behind one interface. Models are served either by a
// Python subprocess per prediction or by an HTTP sidecar.
package ml

import (
	"context"

	"restaurant-intel/internal/features"
)

// PredictorInterface is implemented by every model backend.
type PredictorInterface interface {
	// Predict returns the model output for one feature record. For the
	// classifier this is the predicted class.
	Predict(ctx context.Context, rec features.Record) (float64, error)

	// Name identifies the model in logs and metrics.
	Name() string
}

// MetricsInterface defines metrics methods needed by the predictors
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLTimeoutsInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
}

type inferenceRequest struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

type inferenceResponse struct {
	Prediction *float64 `json:"prediction,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newInferenceRequest(rec features.Record) inferenceRequest {
	return inferenceRequest{Columns: features.Columns(), Values: rec.Values()}
}
