// Package api is the read-only reporting facade over the warehouse the
// pipeline populates. It carries no derivation logic of its own.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/rehabmetrics/gaitetl/pkg/warehouse"
)

// Config is read from the environment (REPORTAPI_* variables).
type Config struct {
	Addr          string `envconfig:"ADDR" default:":8080"`
	APIKey        string `envconfig:"API_KEY" required:"true"`
	WarehousePath string `envconfig:"WAREHOUSE_PATH" default:"data/warehouse.db"`
}

type Server struct {
	db     *warehouse.DB
	apiKey string
	logger *slog.Logger
}

func NewServer(db *warehouse.DB, apiKey string, logger *slog.Logger) *Server {
	return &Server{db: db, apiKey: apiKey, logger: logger.With(slog.String("component", "reportapi"))}
}

// Routes builds the facade router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/api/health", s.health)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/api/device-usage", s.deviceUsage)
		r.Get("/api/patient-outcomes", s.patientOutcomes)
		r.Get("/api/device-reliability", s.deviceReliability)
		r.Get("/api/dashboard-summary", s.dashboardSummary)
	})
	return r
}

// requireAPIKey accepts the shared secret via the X-API-Key header or the
// api_key query parameter.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key == "" || key != s.apiKey {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "invalid or missing API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		s.logger.Error("warehouse query failed", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "warehouse query failed"})
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "data": data})
}

func (s *Server) deviceUsage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.DeviceUsage(r.Context())
	s.respond(w, r, stats, err)
}

func (s *Server) patientOutcomes(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Outcomes(r.Context())
	s.respond(w, r, stats, err)
}

func (s *Server) deviceReliability(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Reliability(r.Context())
	s.respond(w, r, stats, err)
}

func (s *Server) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	usage, err := s.db.DeviceUsage(r.Context())
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	outcomes, err := s.db.Outcomes(r.Context())
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	reliability, err := s.db.Reliability(r.Context())
	if err != nil {
		s.respond(w, r, nil, err)
		return
	}
	s.respond(w, r, map[string]any{
		"device_usage":       usage,
		"patient_outcomes":   outcomes,
		"device_reliability": reliability,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}, nil)
}
