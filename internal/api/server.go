// Package api provides the HTTP API server and handlers for listkeep.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/ratelimit"
)

// Pinger reports whether a backing component is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins   []string
	SecureCookies bool
	AuthLimiter   *ratelimit.KeyedRateLimiter
	ViewLimiter   *ratelimit.KeyedRateLimiter
	Metrics       *metrics.Metrics
	// HealthChecks are pinged by GET /health, keyed by component name.
	HealthChecks map[string]Pinger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services      *Services
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
	metrics       *metrics.Metrics
	authLimiter   *ratelimit.KeyedRateLimiter
	viewLimiter   *ratelimit.KeyedRateLimiter
	healthChecks  map[string]Pinger
	secureCookies bool
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:      services,
		router:        chi.NewRouter(),
		logger:        logger,
		metrics:       opts.Metrics,
		authLimiter:   opts.AuthLimiter,
		viewLimiter:   opts.ViewLimiter,
		healthChecks:  opts.HealthChecks,
		secureCookies: opts.SecureCookies,
	}

	s.setupMiddleware(opts.CORSOrigins)

	config := huma.DefaultConfig("listkeep API", "1.0.0")
	config.Info.Description = "Collaborative curated lists over personal bookmarks"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	config.Transformers = append(config.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Instrument)
	}
	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	s.router.Use(s.authMiddleware)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerSavedRoutes()
	s.registerListRoutes()
	s.registerItemRoutes()
	s.registerInviteRoutes()
	s.registerCatalogRoutes()
}
