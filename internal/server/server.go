// Package server provides the HTTP server and routing for basket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/events"
	"github.com/aristath/basket/internal/modules/analysis"
	analysishandlers "github.com/aristath/basket/internal/modules/analysis/handlers"
	"github.com/aristath/basket/internal/modules/prices"
	priceshandlers "github.com/aristath/basket/internal/modules/prices/handlers"
	"github.com/aristath/basket/internal/monitoring"
	"github.com/aristath/basket/internal/reliability"
	"github.com/aristath/basket/internal/scheduler"
)

// Config holds server dependencies. Archiver and Jobs may be empty.
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	HistoryDB *database.DB
	CacheDB   *database.DB
	Analysis  *analysis.Service
	Prices    *prices.Service
	Reports   *analysis.ReportRepository
	Archiver  *reliability.ReportArchiver
	Events    *events.Manager
	Metrics   *monitoring.Metrics
	Jobs      []scheduler.Job
	Scheduler *scheduler.Scheduler // optional, tracks manual runs alongside scheduled ones
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	cfg            Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		port:   cfg.Port,
		cfg:    cfg,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.HistoryDB,
			cfg.CacheDB,
			cfg.Reports,
			cfg.Archiver,
			cfg.Events,
			cfg.Jobs,
			cfg.Scheduler,
		),
	}

	s.setupMiddleware()
	s.setupRoutes()

	// No WriteTimeout: event streams stay open
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	if s.cfg.Metrics != nil {
		s.router.Use(s.cfg.Metrics.Middleware)
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.cfg.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived streams sit outside the request timeout
		if s.cfg.Events != nil {
			stream := NewEventsStreamHandler(s.cfg.Events.Bus(), s.log)
			r.Get("/events/stream", stream.ServeHTTP)

			var tracker ConnectionTracker
			if s.cfg.Metrics != nil {
				tracker = s.cfg.Metrics
			}
			ws := NewEventsSocketHandler(s.cfg.Events.Bus(), tracker, s.log)
			r.Get("/events/ws", ws.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(120 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			if s.cfg.Analysis != nil {
				analysishandlers.NewHandler(s.cfg.Analysis, s.log).RegisterRoutes(r)
			}
			if s.cfg.Prices != nil {
				priceshandlers.NewHandler(s.cfg.Prices, s.log).RegisterRoutes(r)
			}

			s.systemHandlers.RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	for _, db := range []*database.DB{s.cfg.HistoryDB, s.cfg.CacheDB} {
		if db == nil {
			continue
		}
		if err := db.Conn().PingContext(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
