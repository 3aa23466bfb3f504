// Package api provides the HTTP API server and handlers for the DozenDreams marketplace.
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

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/sse"
	"github.com/dozendreams/dozendreams-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	auth       AuthClient
	store      backend.Reader
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	validate   *validation.Validator
	logger     *slog.Logger

	authRateLimiter *RateLimiter
	allowedOrigins  []string
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(cfg config.ServerConfig, auth AuthClient, store backend.Reader, services *Services, sseManager *sse.Manager, sseHandler *sse.Handler, logger *slog.Logger) *Server {
	s := &Server{
		auth:            auth,
		store:           store,
		services:        services,
		sseManager:      sseManager,
		sseHandler:      sseHandler,
		router:          chi.NewRouter(),
		validate:        validation.New(),
		logger:          logger,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
		allowedOrigins:  cfg.AllowedOrigins,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("DozenDreams API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCategoryRoutes()
	s.registerListingRoutes()
	s.registerSavedRoutes()
	s.registerSearchRoutes()
	s.registerChatRoutes()
	s.registerGeoRoutes()
	s.registerBookingRoutes()

	// Streams speak raw SSE, which huma's typed handlers cannot model.
	s.router.Get("/api/v1/search/sessions/{sessionID}/stream", s.handleSearchStream)
	s.router.Get("/api/v1/chat/sessions/{sessionID}/stream", s.handleChatStream)
	s.router.Get("/api/v1/inbox/stream", s.handleInboxStream)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}
