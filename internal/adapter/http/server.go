// Package http exposes the ops endpoints (health, readiness, metrics) and a
// thin JSON boundary over the scoring engine. Handlers decode, delegate, and
// encode; all domain logic stays in the engine.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/feedback"
	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/scoring"
	"github.com/fellahtech/agri-advisor/internal/weather"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Publisher delivers completed scoring results to the event sink.
type Publisher interface {
	Publish(ctx context.Context, result domain.ScoringResult) error
}

// Deps carries the collaborators the server exposes. Resolver, Store,
// Feedback, Sink, and Advice may each be nil; the affected endpoints degrade
// or reject accordingly.
type Deps struct {
	Ready    ReadinessChecker
	Engine   *scoring.Engine
	Resolver *weather.Resolver
	Store    *model.Store
	Feedback *feedback.Store
	Sink     Publisher
	Advice   domain.AdviceGenerator
	Clock    clockwork.Clock // nil defaults to real time
}

// Server exposes the advisor HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates the HTTP server with ops and v1 API routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/recommend", s.handleRecommend)
	mux.HandleFunc("POST /v1/intended", s.handleIntended)
	mux.HandleFunc("POST /v1/feedback", s.handleFeedback)
	mux.HandleFunc("POST /v1/reload", s.handleReload)

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// scoreRequest is the shared input of the recommend and intended endpoints.
// Weather is optional; when absent it is resolved for the farm's region.
type scoreRequest struct {
	Farm       domain.Farm                `json:"farm"`
	SoilSample *domain.SoilSample         `json:"soil_sample,omitempty"`
	Weather    *domain.WeatherObservation `json:"weather,omitempty"`
	Market     []domain.MarketObservation `json:"market,omitempty"`
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
}

type recommendResponse struct {
	Result domain.ScoringResult `json:"result"`
	Advice []domain.AdviceItem  `json:"advice"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScoreRequest(w, r)
	if !ok {
		return
	}

	result, err := s.deps.Engine.Recommend(r.Context(), s.buildInput(r.Context(), req))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	if s.deps.Sink != nil {
		// Best effort: the caller's response never depends on the sink.
		if err := s.deps.Sink.Publish(r.Context(), result); err != nil {
			s.logger.Warn("publish to recommendation sink failed", "pass_id", result.PassID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Result: result,
		Advice: s.adviceFor(r.Context(), req, result),
	})
}

func (s *Server) handleIntended(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeScoreRequest(w, r)
	if !ok {
		return
	}

	analysis, err := s.deps.Engine.AnalyzeIntended(r.Context(), s.buildInput(r.Context(), req))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type feedbackRequest struct {
	FarmerID      string  `json:"farmer_id"`
	FarmName      string  `json:"farm_name"`
	Region        string  `json:"region"`
	SoilType      string  `json:"soil_type"`
	Crop          string  `json:"crop"`
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	PlantedAreaHa float64 `json:"planted_area_ha"`
	YieldPerHa    float64 `json:"yield_per_ha"`
	PricePerKg    float64 `json:"price_per_kg"`
	RiskPct       float64 `json:"risk_pct"`
	TemperatureC  float64 `json:"temperature_c"`
	RainfallMM    float64 `json:"rainfall_mm"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feedback == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "feedback store not configured"})
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Crop == "" || req.Region == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "crop and region are required"})
		return
	}

	err := s.deps.Feedback.Append(feedback.Record{
		FarmerID:      req.FarmerID,
		FarmName:      req.FarmName,
		Region:        req.Region,
		SoilType:      req.SoilType,
		Crop:          req.Crop,
		Year:          req.Year,
		Month:         time.Month(req.Month),
		PlantedAreaHa: req.PlantedAreaHa,
		YieldPerHa:    req.YieldPerHa,
		PricePerKg:    req.PricePerKg,
		RiskPct:       req.RiskPct,
		TemperatureC:  req.TemperatureC,
		RainfallMM:    req.RainfallMM,
	})
	switch {
	case errors.Is(err, feedback.ErrDuplicate):
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
	case err != nil:
		s.logger.Error("append feedback failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save feedback"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no model bundle configured"})
		return
	}
	if err := s.deps.Store.Reload(); err != nil {
		s.logger.Error("bundle reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	bundle, _ := s.deps.Store.Current()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "reloaded",
		"version": bundle.Version,
	})
}

func (s *Server) decodeScoreRequest(w http.ResponseWriter, r *http.Request) (scoreRequest, bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return scoreRequest{}, false
	}
	if req.Farm.Region == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "farm.region is required"})
		return scoreRequest{}, false
	}
	if req.Farm.SizeHectares <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "farm.size_hectares must be positive"})
		return scoreRequest{}, false
	}
	return req, true
}

// buildInput resolves weather when the request carries none. An omitted year
// or month defaults to the current clock before resolution, so the resolved
// weather and the model features always describe the same month.
func (s *Server) buildInput(ctx context.Context, req scoreRequest) scoring.Input {
	year, month := req.Year, time.Month(req.Month)
	if year == 0 || month == 0 {
		now := s.deps.Clock.Now()
		year, month = now.Year(), now.Month()
	}

	in := scoring.Input{
		Farm:   req.Farm,
		Sample: req.SoilSample,
		Market: req.Market,
		Year:   year,
		Month:  month,
	}

	switch {
	case req.Weather != nil:
		in.Weather = *req.Weather
	case s.deps.Resolver != nil:
		temp, rain := s.deps.Resolver.Resolve(ctx, req.Farm.Region, year, month)
		in.Weather = domain.WeatherObservation{
			Location:     req.Farm.Region,
			TemperatureC: temp,
			RainfallMM:   rain,
		}
	default:
		in.Weather = domain.DefaultWeather(req.Farm.Region)
	}
	return in
}

// adviceFor asks the configured generator for advice on the top-ranked crop.
// No generator or a failed generation yields an empty list, never an error.
func (s *Server) adviceFor(ctx context.Context, req scoreRequest, result domain.ScoringResult) []domain.AdviceItem {
	if s.deps.Advice == nil || len(result.Recommendations) == 0 {
		return []domain.AdviceItem{}
	}

	top := result.Recommendations[0]
	crop := domain.Crop{Name: top.Crop}
	items, err := s.deps.Advice.GenerateAdvice(ctx, domain.CropAnalysis{
		Crop:       crop,
		Farm:       req.Farm,
		Scores:     top.Scores,
		FinalScore: top.FinalScore,
		Weather:    result.Weather,
		Prediction: top.Prediction,
	})
	if err != nil {
		s.logger.Warn("advice generation failed", "crop", top.Crop, "error", err)
		return []domain.AdviceItem{}
	}
	return items
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	// ErrNoData is an availability problem; everything else (missing intended
	// crop, unknown crop, crop outside the model schema) is the caller's input.
	if errors.Is(err, scoring.ErrNoData) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
