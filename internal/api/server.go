// Package api implements the StagePass HTTP API on huma and chi.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stagepass/stagepass-server/internal/http/response"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/metrics"
	"github.com/stagepass/stagepass-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options configures NewServer.
type Options struct {
	Store    store.Store
	Services *Services
	Metrics  *metrics.Metrics // nil disables /metrics
	Logger   *slog.Logger

	// AdminKey guards admin and developer endpoints. See requireAdmin.
	AdminKey string
	// DevMode opens admin endpoints when no AdminKey is configured.
	DevMode bool

	AllowedOrigins []string
	// IngestLimiter throttles the public analytics endpoint per client IP.
	// Nil disables throttling.
	IngestLimiter *RateLimiter
}

// Server is the HTTP API server.
type Server struct {
	store         store.Store
	services      *Services
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
	adminKey      string
	devMode       bool
	ingestLimiter *RateLimiter
}

// NewHumaConfig returns the huma configuration shared by the server and tests.
func NewHumaConfig() huma.Config {
	humaConfig := huma.DefaultConfig("StagePass API", Version)
	humaConfig.Info.Description = "Genres, artists, events and visitor analytics for the StagePass site."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:   "http",
			Scheme: "bearer",
		},
	}
	// The $schema link transformer would wrap bodies before the envelope sees them.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

// NewServer creates the server and registers every route.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(opts.Logger))
	router.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.URL.Path, opts.Logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path, opts.Logger)
	})

	api := humachi.New(router, NewHumaConfig())
	RegisterErrorHandler()

	s := &Server{
		store:         opts.Store,
		services:      opts.Services,
		router:        router,
		api:           api,
		logger:        opts.Logger,
		adminKey:      opts.AdminKey,
		devMode:       opts.DevMode,
		ingestLimiter: opts.IngestLimiter,
	}
	s.registerRoutes()

	if opts.Metrics != nil {
		router.With(s.requireAdminHTTP).Handle("/metrics", opts.Metrics.Handler())
	}

	return s
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerGenreRoutes()
	s.registerArtistRoutes()
	s.registerEventRoutes()
	s.registerSearchRoutes()
	s.registerAnalyticsRoutes()
	s.registerDevRoutes()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request and makes a request-scoped logger
// available to handlers through logger.FromContext.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := base.With("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logger.NewContext(r.Context(), reqLog)))

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			reqLog.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
