package predict

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"restaurant-intel/internal/cfg"
	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encodersJSON = `{"Restaurant_Name": ["A"], "Cuisine": ["B"], "Place_Name": ["C"], "City": ["D"], "Item_Name": ["E"], "Best_Seller": ["BESTSELLER", "NONE"]}`

func TestLoadEncoders_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_encoders.json")
	require.NoError(t, os.WriteFile(path, []byte(encodersJSON), 0o600))

	enc, err := LoadEncoders(context.Background(), cfg.Settings{EncodersPath: path})
	require.NoError(t, err)
	assert.Equal(t, 1, enc.Encode(common.ColBestSeller, "NONE"))
}

func TestLoadEncoders_PickleIsExported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter is a shell script")
	}
	dir := t.TempDir()
	pkl := filepath.Join(dir, "label_encoders.pkl")
	require.NoError(t, os.WriteFile(pkl, []byte("pickle"), 0o600))

	python := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\necho '"+encodersJSON+"'\n"), 0o755))

	settings := cfg.Settings{EncodersPath: pkl, PythonPath: python, InferenceTimeout: 5 * time.Second}
	enc, err := LoadEncoders(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, 0, enc.Encode(common.ColCity, "D"))
	assert.FileExists(t, filepath.Join(dir, "label_encoders.json"))

	// a fresh export is reused without running the interpreter again
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\nexit 1\n"), 0o755))
	_, err = LoadEncoders(context.Background(), settings)
	assert.NoError(t, err)
}

func TestLoadEncoders_Missing(t *testing.T) {
	_, err := LoadEncoders(context.Background(), cfg.Settings{EncodersPath: filepath.Join(t.TempDir(), "none.json")})
	assert.Error(t, err)
}

func TestNewPredictors_HTTP(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"prediction": 0}`))
	}))
	defer srv.Close()

	settings := cfg.Settings{
		PriceModelPath:   "models/price_predictor.pkl",
		RatingModelPath:  "models/rating_classifier.pkl",
		InferenceBackend: common.BackendHTTP,
		InferenceURL:     srv.URL,
		InferenceTimeout: time.Second,
	}

	price, rating, err := NewPredictors(context.Background(), settings, nil)
	require.NoError(t, err)
	assert.Equal(t, "price_predictor", price.Name())
	assert.Equal(t, "rating_classifier", rating.Name())
	mu.Lock()
	assert.Equal(t, []string{"/predict/price_predictor", "/predict/rating_classifier"}, paths)
	mu.Unlock()

	_, err = price.Predict(context.Background(), features.Record{})
	assert.NoError(t, err)
}

func TestNewPredictors_HTTPUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, _, err := NewPredictors(context.Background(), cfg.Settings{
		PriceModelPath:   "price_predictor.pkl",
		RatingModelPath:  "rating_classifier.pkl",
		InferenceBackend: common.BackendHTTP,
		InferenceURL:     srv.URL,
		InferenceTimeout: time.Second,
	}, nil)
	assert.Error(t, err)
}

func TestNewPredictors_SubprocessMissingModel(t *testing.T) {
	_, _, err := NewPredictors(context.Background(), cfg.Settings{
		PriceModelPath:   filepath.Join(t.TempDir(), "price_predictor.pkl"),
		RatingModelPath:  filepath.Join(t.TempDir(), "rating_classifier.pkl"),
		PythonPath:       "/bin/false",
		InferenceBackend: common.BackendSubprocess,
		InferenceTimeout: time.Second,
	}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewPredictors_UnknownBackend(t *testing.T) {
	_, _, err := NewPredictors(context.Background(), cfg.Settings{InferenceBackend: "onnx"}, nil)
	assert.Error(t, err)
}
