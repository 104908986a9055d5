// Package server provides HTTP server management and lifecycle handling for
// the clinical API. It includes server setup, middleware configuration, route
// management, and graceful shutdown capabilities with proper error handling
// and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	// Registers /debug/pprof on the default mux for the dev profiler.
	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medperplexity/clinical-api/config"
	"github.com/medperplexity/clinical-api/interfaces"
	"github.com/medperplexity/clinical-api/logging"
	"github.com/medperplexity/clinical-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler interfaces.HTTPHandler
	authMW  func(http.Handler) http.Handler
	config  *config.Config
}

// NewServer creates a new server instance. authMiddleware guards every route
// that needs an authenticated doctor.
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler, authMiddleware func(http.Handler) http.Handler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:     router,
			Addr:        cfg.Address + ":" + cfg.Port,
			ReadTimeout: 15 * time.Second,
			// The chat stream keeps the connection open while upstream
			// stages run, so writes get a generous ceiling.
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		handler: handler,
		authMW:  authMiddleware,
		config:  cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.Root)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Method("GET", "/metrics", promhttp.Handler())

	s.router.Post("/api/auth/login", s.handler.Login)
	s.router.Post("/api/auth/register", s.handler.Register)

	// Everything below needs an authenticated doctor
	s.router.Group(func(r chi.Router) {
		r.Use(s.authMW)
		r.Get("/api/patients", s.handler.ListPatients)
		r.Get("/api/patients/{patientId}", s.handler.GetPatient)
		r.Get("/api/rounds", s.handler.ListRounds)
		r.Post("/api/chat", s.handler.Chat)
		r.Post("/api/jan-aushadhi/search", s.handler.SearchJanAushadhi)
		r.Get("/api/jan-aushadhi/stats", s.handler.JanAushadhiStats)
	})
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	// Wait a bit for any ongoing requests to complete
	logging.Info("Waiting for ongoing requests to complete...")
	time.Sleep(2 * time.Second)

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
