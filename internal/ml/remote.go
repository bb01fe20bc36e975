package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"restaurant-intel/internal/features"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// RemotePredictor posts records to a model-serving sidecar at
// <base>/predict/<name>.
type RemotePredictor struct {
	name    string
	base    string
	rest    *resty.Client
	metrics MetricsInterface
}

func NewRemotePredictor(name, base string, timeout time.Duration, metrics MetricsInterface) *RemotePredictor {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	return &RemotePredictor{
		name:    name,
		base:    strings.TrimRight(base, "/"),
		rest:    r,
		metrics: metrics,
	}
}

func (rp *RemotePredictor) Name() string { return rp.name }

// Predict runs the remote model on one record.
func (rp *RemotePredictor) Predict(ctx context.Context, rec features.Record) (float64, error) {
	start := time.Now()
	defer func() {
		if rp.metrics != nil {
			rp.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	out, err := rp.predictInternal(ctx, rec)
	if err != nil {
		if rp.metrics != nil {
			rp.metrics.MLFailuresInc()
		}
		log.Error().Err(err).Str("model", rp.name).Str("base", rp.base).Msg("Remote inference failed")
		return 0, err
	}

	if rp.metrics != nil {
		rp.metrics.MLPredictionsInc()
	}
	return out, nil
}

func (rp *RemotePredictor) predictInternal(ctx context.Context, rec features.Record) (float64, error) {
	req := newInferenceRequest(rec)
	for i, v := range req.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s: %w", req.Columns[i], ErrNonFiniteFeature)
		}
	}

	resp, err := rp.rest.R().
		SetContext(ctx).
		SetBody(req).
		Post(rp.base + "/predict/" + rp.name)

	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			if rp.metrics != nil {
				rp.metrics.MLTimeoutsInc()
			}
			return 0, fmt.Errorf("prediction timeout: %w", err)
		}
		return 0, fmt.Errorf("request failed: %w", err)
	}

	// Decoded whatever the Content-Type says.
	var result inferenceResponse
	parseErr := json.Unmarshal(bytes.TrimSpace(resp.Body()), &result)

	if resp.StatusCode() != http.StatusOK {
		if parseErr == nil && result.Error != "" {
			return 0, fmt.Errorf("inference server error: status %d: %s", resp.StatusCode(), result.Error)
		}
		return 0, fmt.Errorf("inference server error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if parseErr != nil {
		return 0, fmt.Errorf("failed to parse response: %w, body: %s", parseErr, resp.String())
	}
	if result.Error != "" {
		return 0, fmt.Errorf("inference server error: %s", result.Error)
	}
	if result.Prediction == nil {
		return 0, fmt.Errorf("response carries no prediction, body: %s", resp.String())
	}
	if math.IsNaN(*result.Prediction) || math.IsInf(*result.Prediction, 0) {
		return 0, fmt.Errorf("model returned a non-finite prediction")
	}
	return *result.Prediction, nil
}

// HealthCheck predicts once on an all-zero record.
func (rp *RemotePredictor) HealthCheck(ctx context.Context) error {
	if _, err := rp.predictInternal(ctx, features.Record{}); err != nil {
		return fmt.Errorf("model %s health check failed: %w", rp.name, err)
	}
	return nil
}
