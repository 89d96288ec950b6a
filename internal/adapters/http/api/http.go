// Package api exposes the prediction engine, training intake, ratings
// and betting helpers over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/pitchcast/internal/domain/parlay"
	"github.com/okian/pitchcast/internal/domain/stake"
	"github.com/okian/pitchcast/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 8 << 20

// Dependencies bundles what the handlers need from the service.
type Dependencies interface {
	Predictor
	Trainer
	Ratings
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	trainHandler   *TrainHandler
	ratingsHandler *RatingsHandler
	bettingHandler *BettingHandler

	limits limits
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit throttles the prediction and training endpoints to rps
// requests per second with the given burst. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limits = newLimits(rps, burst)
	}
}

// WithBetting sets the parlay selector and stake sizer.
func WithBetting(sel *parlay.Selector, sizer *stake.Sizer) Option {
	return func(s *Server) {
		s.bettingHandler = NewBettingHandler(sel, sizer)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBatch int, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps, maxBatch),
		trainHandler:   NewTrainHandler(deps),
		ratingsHandler: NewRatingsHandler(deps, maxLeaderboard),
		bettingHandler: NewBettingHandler(parlay.NewSelector(), stake.NewSizer()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	metricsHandler := promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.limits.predict.wrap(s.predictHandler.HandlePredict, "predict"), "predict"))
	mux.HandleFunc("/predict/batch", MetricsMiddleware(s.limits.batch.wrap(s.predictHandler.HandleBatch, "predict_batch"), "predict_batch"))
	mux.HandleFunc("/train", MetricsMiddleware(s.limits.train.wrap(s.trainHandler.HandleTrain, "train"), "train"))
	mux.HandleFunc("/train/", MetricsMiddleware(s.trainHandler.HandleJob, "train_job"))
	mux.HandleFunc("/ratings", MetricsMiddleware(s.ratingsHandler.HandleTop, "ratings"))
	mux.HandleFunc("/ratings/", MetricsMiddleware(s.ratingsHandler.HandleTeam, "rating"))
	mux.HandleFunc("/parlay", MetricsMiddleware(s.bettingHandler.HandleParlay, "parlay"))
	mux.HandleFunc("/stake", MetricsMiddleware(s.bettingHandler.HandleStake, "stake"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a bounded JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
