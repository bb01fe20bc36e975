// Package web serves the prediction form, its JSON API and a websocket
// submission channel.
package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"restaurant-intel/internal/dataset"
	"restaurant-intel/internal/features"
	"restaurant-intel/internal/predict"
	"restaurant-intel/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Predictor is satisfied by *predict.Service.
type Predictor interface {
	Predict(ctx context.Context, in features.RawInput) (predict.Result, error)
}

// HistoryStore is satisfied by *storage.Store.
type HistoryStore interface {
	Recent(n int) ([]storage.PredictionRecord, error)
}

// MetricsRecorder is satisfied by *metrics.MetricsWrapper.
type MetricsRecorder interface {
	SubmissionInc()
}

// Config carries everything the server needs. History, Metrics and
// Gatherer are optional.
type Config struct {
	Port           int
	Currency       string
	AllowedOrigins []string
	Predictor      Predictor
	Options        *dataset.Options
	History        HistoryStore
	Metrics        MetricsRecorder
	Gatherer       prometheus.Gatherer
}

// Server is the HTTP front end of the prediction form.
type Server struct {
	predictor Predictor
	options   *dataset.Options
	history   HistoryStore
	metrics   MetricsRecorder
	currency  string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	router    *mux.Router
	server    *http.Server
	started   time.Time
}

func NewServer(config Config) *Server {
	s := &Server{
		predictor: config.Predictor,
		options:   config.Options,
		history:   config.History,
		metrics:   config.Metrics,
		currency:  config.Currency,
		upgrader:  websocket.Upgrader{CheckOrigin: checkOrigin(config.AllowedOrigins)},
		clients:   make(map[*websocket.Conn]struct{}),
		started:   time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// OPTIONS is routed so preflight requests reach the CORS middleware.
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", s.handleOptions).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet, http.MethodOptions)
	api.Use(cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// checkOrigin applies the API's origin list to websocket upgrades. With no
// list every origin is accepted, like the CORS middleware. Same-host pages
// and clients that send no Origin are always accepted.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		log.Warn().Str("origin", origin).Msg("Rejected WebSocket origin")
		return false
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves in the background. Listen errors other than a clean
// shutdown are logged.
func (s *Server) Start() error {
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("Starting prediction form server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Prediction form server failed")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down prediction form server")

	// Hijacked websocket connections are not closed by http.Server.
	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.clientsMu.Unlock()

	return s.server.Shutdown(ctx)
}
