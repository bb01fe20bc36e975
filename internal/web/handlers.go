package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"restaurant-intel/internal/features"
	"restaurant-intel/internal/form"
	"restaurant-intel/internal/predict"

	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 16
)

// PredictionResponse is the JSON shape of one completed submission.
type PredictionResponse struct {
	RequestID         string   `json:"request_id"`
	Price             float64  `json:"price"`
	PriceLabel        string   `json:"price_label"`
	HighlyRated       bool     `json:"highly_rated"`
	RatingLabel       string   `json:"rating_label"`
	UnknownCategories []string `json:"unknown_categories"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) newPredictionResponse(result predict.Result) PredictionResponse {
	unknown := result.UnknownCategories
	if unknown == nil {
		unknown = []string{}
	}
	return PredictionResponse{
		RequestID:         result.RequestID,
		Price:             result.Price,
		PriceLabel:        result.PriceLabel(s.currency),
		HighlyRated:       result.HighlyRated,
		RatingLabel:       result.RatingLabel(),
		UnknownCategories: unknown,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	in := features.DefaultRawInput()
	s.fillCategoricalDefaults(&in)
	s.renderPage(w, http.StatusOK, in, nil, nil)
}

// handleSubmit runs exactly one prediction cycle for the posted form.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, err := parseFormInput(r.PostForm)
	s.fillCategoricalDefaults(&in)
	session := form.NewSession()
	if submitErr := session.Submit(in); submitErr != nil {
		http.Error(w, submitErr.Error(), http.StatusConflict)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadRequest
		_ = session.Complete(predict.Result{}, err)
	} else {
		result, err := s.runCycle(r, in)
		if err != nil {
			status = http.StatusBadGateway
		}
		_ = session.Complete(result, err)
	}

	result, err := session.Result()
	s.renderPage(w, status, session.Input(), result, err)
}

func (s *Server) runCycle(r *http.Request, in features.RawInput) (predict.Result, error) {
	if s.metrics != nil {
		s.metrics.SubmissionInc()
	}
	start := time.Now()
	result, err := s.predictor.Predict(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("Prediction failed")
		return predict.Result{}, err
	}
	log.Info().
		Str("request_id", result.RequestID).
		Float64("price", result.Price).
		Bool("highly_rated", result.HighlyRated).
		Strs("unknown_categories", result.UnknownCategories).
		Dur("latency", time.Since(start)).
		Msg("Prediction served")
	return result, nil
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.options.All())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	in := features.DefaultRawInput()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	s.fillCategoricalDefaults(&in)

	if err := form.Validate(in); err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse(err))
		return
	}

	result, err := s.runCycle(r, in)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.newPredictionResponse(result))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "prediction history is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxHistoryLimit)})
			return
		}
		limit = n
	}

	records, err := s.history.Recent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read prediction history")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"history": s.history != nil,
	})
}

func validationResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	var verr form.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = make(map[string]string, len(verr))
		for _, fe := range verr {
			resp.Fields[fe.Field] = fe.Message
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
