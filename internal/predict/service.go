// Package predict runs one build-and-predict cycle for a form submission.
package predict

import (
	"context"
	"fmt"
	"time"

	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"
	"restaurant-intel/internal/ml"
	"restaurant-intel/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Encoder is satisfied by *encoding.Encoders.
type Encoder interface {
	features.Encoder
	Lookup(column, value string) (int, bool)
}

// MetricsRecorder is satisfied by *metrics.MetricsWrapper.
type MetricsRecorder interface {
	features.MetricsTracker
	UnknownCategoryInc(column string)
	PredictionObserve(price float64, highlyRated bool)
	ErrorsInc()
}

// OutcomeStore is satisfied by *storage.Store.
type OutcomeStore interface {
	StorePrediction(record storage.PredictionRecord) error
}

// Result is what the form displays for one submission.
type Result struct {
	RequestID         string   `json:"request_id"`
	Price             float64  `json:"price"`
	HighlyRated       bool     `json:"highly_rated"`
	UnknownCategories []string `json:"unknown_categories"`
}

// PriceLabel renders the price with two decimals behind the currency symbol.
func (r Result) PriceLabel(currency string) string {
	return fmt.Sprintf("%s%.2f", currency, r.Price)
}

func (r Result) RatingLabel() string {
	if r.HighlyRated {
		return "Yes"
	}
	return "No"
}

type Service struct {
	encoder Encoder
	price   ml.PredictorInterface
	rating  ml.PredictorInterface
	metrics MetricsRecorder
	store   OutcomeStore
	backend string
}

// NewService wires the encoder and both models. metrics and store may be nil.
func NewService(enc Encoder, price, rating ml.PredictorInterface, metrics MetricsRecorder, store OutcomeStore, backend string) *Service {
	return &Service{
		encoder: enc,
		price:   price,
		rating:  rating,
		metrics: metrics,
		store:   store,
		backend: backend,
	}
}

// Build derives the feature record without running either model.
func (s *Service) Build(in features.RawInput) features.Record {
	if s.metrics != nil {
		return features.BuildWithMetrics(s.encoder, in, s.metrics)
	}
	return features.Build(s.encoder, in)
}

// UnknownCategories lists, in column order, the categorical fields whose
// value is not in the vocabulary and was encoded as the sentinel.
func (s *Service) UnknownCategories(in features.RawInput) []string {
	values := in.Categoricals()
	unknown := []string{}
	for _, col := range common.CategoricalColumns {
		if _, ok := s.encoder.Lookup(col, values[col]); !ok {
			unknown = append(unknown, col)
		}
	}
	return unknown
}

// Predict runs the price model then the rating model on the same record.
// Each call gets a fresh request ID that follows the outcome into storage.
func (s *Service) Predict(ctx context.Context, in features.RawInput) (Result, error) {
	id := uuid.NewString()
	rec := s.Build(in)
	unknown := s.UnknownCategories(in)

	if len(unknown) > 0 {
		log.Debug().Str("request_id", id).Strs("columns", unknown).Msg("Unknown categories encoded as sentinel")
		if s.metrics != nil {
			for _, col := range unknown {
				s.metrics.UnknownCategoryInc(col)
			}
		}
	}

	price, err := s.price.Predict(ctx, rec)
	if err != nil {
		s.errorsInc()
		return Result{}, fmt.Errorf("%s: %w", s.price.Name(), err)
	}

	class, err := s.rating.Predict(ctx, rec)
	if err != nil {
		s.errorsInc()
		return Result{}, fmt.Errorf("%s: %w", s.rating.Name(), err)
	}

	result := Result{
		RequestID:         id,
		Price:             price,
		HighlyRated:       class != 0,
		UnknownCategories: unknown,
	}

	if s.metrics != nil {
		s.metrics.PredictionObserve(result.Price, result.HighlyRated)
	}

	if s.store != nil {
		record := storage.PredictionRecord{
			ID:                id,
			Timestamp:         time.Now(),
			Price:             result.Price,
			HighlyRated:       result.HighlyRated,
			UnknownCategories: unknown,
			Backend:           s.backend,
		}
		if err := s.store.StorePrediction(record); err != nil {
			log.Warn().Err(err).Str("request_id", id).Msg("Failed to store prediction outcome")
		}
	}

	return result, nil
}

func (s *Service) errorsInc() {
	if s.metrics != nil {
		s.metrics.ErrorsInc()
	}
}
