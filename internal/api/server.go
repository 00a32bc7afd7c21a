// Package api exposes the aggregation core over HTTP. Snapshot and analysis
// logic lives below; this layer validates input, maps errors to status codes
// and serializes wire responses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/internal/baselines"
	"github.com/gridpulse/gridpulse/internal/griddata"
	"github.com/gridpulse/gridpulse/internal/history"
	"github.com/gridpulse/gridpulse/internal/observability"
	"github.com/gridpulse/gridpulse/internal/weather"
	"github.com/gridpulse/gridpulse/models"
)

// Server holds the handler dependencies.
type Server struct {
	grid       *griddata.Service
	store      *baselines.Store
	weather    *weather.Service
	history    *history.Service
	completion models.CompletionClient // nil disables the AI routes
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

func NewServer(
	grid *griddata.Service,
	store *baselines.Store,
	ws *weather.Service,
	hist *history.Service,
	completion models.CompletionClient,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		grid:       grid,
		store:      store,
		weather:    ws,
		history:    hist,
		completion: completion,
		metrics:    metrics,
		logger:     log.With().Str("component", "api").Logger(),
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	route := func(path string, h http.HandlerFunc) {
		r.Handle(path, s.metrics.WrapHandler(path, h)).Methods("GET")
	}

	route("/market/snapshot", s.handleMarketSnapshot)
	route("/market/explain", s.handleExplain)
	route("/market/price-analysis", s.handlePriceAnalysis)
	route("/market/history", s.handleMarketHistory)
	route("/grid/fuel-mix", s.handleFuelMixSummary)
	route("/weather", s.handleWeather)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(requestID(r))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP statuses. Unexpected errors get
// a generic body; the detail stays in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *models.UnsupportedISOError
	var unknownDataset *history.UnknownDatasetError
	var provider *models.ProviderError

	switch {
	case errors.As(err, &unsupported), errors.As(err, &unknownDataset):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrNoData):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &provider):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream provider error")
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	}
}

func isoParam(r *http.Request) string {
	iso := r.URL.Query().Get("iso")
	if iso == "" {
		iso = "CAISO"
	}
	return iso
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
