package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/engine"
	"github.com/mintesinot/fi-forecast/internal/metrics"
	"github.com/mintesinot/fi-forecast/internal/report"
	"github.com/mintesinot/fi-forecast/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server exposes forecast results as read-only JSON tables. It performs
// no computation of its own beyond calling the engine; rendering is the
// dashboard's job.
type Server struct {
	model         *dataset.DataModel
	engine        *engine.Engine
	horizonMonths int
	logger        zerolog.Logger
}

func New(model *dataset.DataModel, eng *engine.Engine, horizonMonths int) *Server {
	return &Server{
		model:         model,
		engine:        eng,
		horizonMonths: horizonMonths,
		logger:        log.With().Str("component", "api_server").Logger(),
	}
}

// Router wires the API endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/indicators", s.indicatorsHandler).Methods("GET")
	r.HandleFunc("/api/forecast", s.forecastHandler).Methods("GET")
	r.HandleFunc("/api/milestones", s.milestonesHandler).Methods("GET")
	r.HandleFunc("/api/report", s.reportHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) indicatorsHandler(w http.ResponseWriter, r *http.Request) {
	defer s.observe("indicators", time.Now())

	var out []models.IndicatorMeta
	for _, code := range s.model.Indicators() {
		if meta, ok := s.model.Meta(code); ok {
			out = append(out, meta)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) forecastHandler(w http.ResponseWriter, r *http.Request) {
	defer s.observe("forecast", time.Now())

	code := r.URL.Query().Get("indicator")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing indicator parameter")
		return
	}
	if _, ok := s.model.Meta(code); !ok {
		writeError(w, http.StatusNotFound, "unknown indicator "+code)
		return
	}

	name := models.ScenarioName(r.URL.Query().Get("scenario"))
	if name == "" {
		name = models.ScenarioBase
	}
	if !models.ValidScenarioName(name) {
		writeError(w, http.StatusBadRequest, "unknown scenario "+string(name))
		return
	}

	horizon := engine.MonthlyHorizon(time.Now().UTC(), s.months(r))
	series, err := s.engine.Forecast(s.model, code, horizon, name)
	if err != nil {
		var insufficient *models.InsufficientDataError
		if errors.As(err, &insufficient) {
			// No forecast available is not a server fault; the caller
			// must be able to tell it apart from a low-confidence one.
			metrics.ForecastErrors.WithLabelValues("insufficient_data").Inc()
			writeError(w, http.StatusUnprocessableEntity, insufficient.Error())
			return
		}
		metrics.ForecastErrors.WithLabelValues("internal").Inc()
		s.logger.Error().Err(err).Str("indicator", code).Msg("Forecast failed")
		writeError(w, http.StatusInternalServerError, "forecast failed")
		return
	}

	metrics.ForecastsTotal.WithLabelValues(string(name)).Inc()
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) milestonesHandler(w http.ResponseWriter, r *http.Request) {
	defer s.observe("milestones", time.Now())

	code := r.URL.Query().Get("indicator")
	horizon := engine.MonthlyHorizon(time.Now().UTC(), s.months(r))

	var out []models.MilestoneResult
	for _, target := range s.model.Targets(code) {
		result, err := s.engine.Milestones(s.model, target.IndicatorCode, target, horizon)
		if err != nil {
			var insufficient *models.InsufficientDataError
			if errors.As(err, &insufficient) {
				continue
			}
			s.logger.Error().Err(err).Str("target", target.RecordID).Msg("Milestone failed")
			writeError(w, http.StatusInternalServerError, "milestone detection failed")
			return
		}
		out = append(out, *result)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	defer s.observe("report", time.Now())

	horizon := engine.MonthlyHorizon(time.Now().UTC(), s.months(r))
	rep, err := report.Build(s.engine, s.model, horizon)
	if err != nil {
		s.logger.Error().Err(err).Msg("Report build failed")
		writeError(w, http.StatusInternalServerError, "report build failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) months(r *http.Request) int {
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return s.horizonMonths
}

func (s *Server) observe(endpoint string, start time.Time) {
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
