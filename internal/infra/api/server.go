package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/infra/logging"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server owns the listener and the middleware stack shared by every route.
type Server struct {
	router chi.Router
	server *http.Server
	checks map[string]HealthCheck
	log    *zerolog.Logger
}

// NewServer builds the router with tracing, logging, recovery and a request
// deadline applied to every route. /health and /metrics are mounted here.
func NewServer(port int, timeout time.Duration, checks map[string]HealthCheck, logger *zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(logger), Recover(logger))
	if timeout > 0 {
		r.Use(Timeout(timeout))
	}

	s := &Server{router: r, checks: checks, log: logger}
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: "route not found", TraceID: logging.TraceIDFrom(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed", TraceID: logging.TraceIDFrom(r.Context())})
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the root router so API versions can register routes.
func (s *Server) Router() chi.Router { return s.router }

// Handler is the full stack, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the listener stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	WriteJSON(w, code, resp)
}
