package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and ad-hoc assessment HTTP
// endpoints.
type Server struct {
	httpServer *http.Server
	assessor   *domain.Assessor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/assess routes. The assessor is shared with the pipeline; one
// Simulate call is cheap, so no separate engine is needed.
func NewServer(addr string, ready ReadinessChecker, assessor *domain.Assessor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		assessor: assessor,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/assess", s.handleAssess)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// assessRequest is the ad-hoc scoring request body. All three signals are
// required; pointers distinguish an absent field from a zero value.
type assessRequest struct {
	ThermalAnomaly *float64 `json:"thermal_anomaly_c"`
	WaterDeficit   *float64 `json:"water_deficit_mm"`
	NDVIAnomaly    *float64 `json:"ndvi_anomaly"`
}

type assessResponse struct {
	Score     float64          `json:"score"`
	Category  domain.Category  `json:"category"`
	RuleTable domain.RuleTable `json:"rule_table"`
	Clamped   bool             `json:"clamped,omitempty"`
}

// handleAssess scores one set of signals without touching Kafka. Operators
// use it to sanity-check the model against known scenarios.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.ThermalAnomaly == nil || req.WaterDeficit == nil || req.NDVIAnomaly == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "thermal_anomaly_c, water_deficit_mm, and ndvi_anomaly are required",
		})
		return
	}
	if !finite(*req.ThermalAnomaly) || !finite(*req.WaterDeficit) || !finite(*req.NDVIAnomaly) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "signals must be finite numbers"})
		return
	}

	signals := domain.Signals{
		ThermalAnomaly: *req.ThermalAnomaly,
		WaterDeficit:   *req.WaterDeficit,
		NDVIAnomaly:    *req.NDVIAnomaly,
	}

	score, clamped, err := s.assessor.Score(signals)
	if err != nil {
		if errors.Is(err, fuzzy.ErrNoRuleFired) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "no rule fired for the given signals",
			})
			return
		}
		s.logger.Error("assess request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, assessResponse{
		Score:     score,
		Category:  domain.Categorize(score),
		RuleTable: s.assessor.Table(),
		Clamped:   clamped,
	})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
