package predict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"restaurant-intel/internal/cfg"
	"restaurant-intel/internal/common"
	"restaurant-intel/internal/encoding"
	"restaurant-intel/internal/ml"

	"github.com/rs/zerolog/log"
)

// LoadEncoders reads the vocabulary file named in settings. A pickled
// encoder dict is exported to JSON next to it first, unless an export at
// least as new already exists.
func LoadEncoders(ctx context.Context, settings cfg.Settings) (*encoding.Encoders, error) {
	path := settings.EncodersPath
	if strings.EqualFold(filepath.Ext(path), ".pkl") {
		jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if !upToDate(jsonPath, path) {
			if err := ml.ExportEncoders(ctx, settings.PythonPath, path, jsonPath, settings.InferenceTimeout); err != nil {
				return nil, err
			}
		}
		path = jsonPath
	}

	enc, err := encoding.Load(path)
	if err != nil {
		return nil, err
	}

	for _, col := range common.CategoricalColumns {
		if v, err := enc.Vocabulary(col); err == nil {
			log.Debug().Str("column", col).Int("classes", v.Len()).Msg("Vocabulary loaded")
		}
	}
	return enc, nil
}

func upToDate(target, source string) bool {
	t, err := os.Stat(target)
	if err != nil {
		return false
	}
	s, err := os.Stat(source)
	if err != nil {
		return false
	}
	return !t.ModTime().Before(s.ModTime())
}

// NewPredictors builds the price and rating models for the configured
// backend and checks that both answer.
func NewPredictors(ctx context.Context, settings cfg.Settings, metrics ml.MetricsInterface) (price, rating ml.PredictorInterface, err error) {
	switch settings.InferenceBackend {
	case common.BackendHTTP:
		p := ml.NewRemotePredictor(modelName(settings.PriceModelPath), settings.InferenceURL, settings.InferenceTimeout, metrics)
		r := ml.NewRemotePredictor(modelName(settings.RatingModelPath), settings.InferenceURL, settings.InferenceTimeout, metrics)
		for _, rp := range []*ml.RemotePredictor{p, r} {
			if err := rp.HealthCheck(ctx); err != nil {
				return nil, nil, err
			}
		}
		return p, r, nil

	case common.BackendSubprocess:
		p, err := ml.NewPredictor(ctx, ml.PredictorConfig{
			ModelPath:  settings.PriceModelPath,
			PythonPath: settings.PythonPath,
			Timeout:    settings.InferenceTimeout,
			RateLimit:  settings.InferenceRate,
		}, metrics)
		if err != nil {
			return nil, nil, err
		}
		r, err := ml.NewPredictor(ctx, ml.PredictorConfig{
			ModelPath:  settings.RatingModelPath,
			PythonPath: settings.PythonPath,
			Timeout:    settings.InferenceTimeout,
			RateLimit:  settings.InferenceRate,
		}, metrics)
		if err != nil {
			return nil, nil, err
		}
		return p, r, nil

	default:
		return nil, nil, fmt.Errorf("unknown inference backend %q", settings.InferenceBackend)
	}
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
