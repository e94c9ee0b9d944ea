// Package api provides the HTTP admin API: catalog description, entity
// lists, edit sessions, image uploads and the invalidation stream.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/listview"
	"github.com/folioadmin/folio-admin/internal/media/images"
	"github.com/folioadmin/folio-admin/internal/session"
	"github.com/folioadmin/folio-admin/internal/sse"
)

// Pinger is implemented by backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds the collaborators and limits of the Server.
type Options struct {
	Catalog     *domain.Catalog
	Lists       *listview.Registry
	Sessions    map[domain.Kind]*session.Controller
	Events      *sse.Manager
	Backend     any             // checked for Pinger in the health endpoint
	Images      *images.Storage // served under /uploads when set
	Version     string
	CORS        []string
	UploadMax   int64
	UploadRPS   float64
	UploadBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog       *domain.Catalog
	lists         *listview.Registry
	sessions      map[domain.Kind]*session.Controller
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	backend       any
	images        *images.Storage
	uploadMax     int64
	uploadLimiter *RateLimiter
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options, logger *slog.Logger) *Server {
	if opts.UploadMax <= 0 {
		opts.UploadMax = MaxUploadSize
	}
	if opts.UploadRPS <= 0 {
		opts.UploadRPS = 1
	}
	if opts.UploadBurst <= 0 {
		opts.UploadBurst = 5
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()

	s := &Server{
		catalog:       opts.Catalog,
		lists:         opts.Lists,
		sessions:      opts.Sessions,
		sseManager:    opts.Events,
		backend:       opts.Backend,
		images:        opts.Images,
		uploadMax:     opts.UploadMax,
		uploadLimiter: NewRateLimiter(opts.UploadRPS, opts.UploadBurst),
		router:        router,
		logger:        logger,
	}
	if opts.Events != nil {
		s.sseHandler = sse.NewHandler(opts.Events, logger)
	}

	s.setupMiddleware(opts.CORS)

	humaConfig := huma.DefaultConfig("Folio Admin API", opts.Version)
	humaConfig.Info.Description = "Bilingual catalog administration"
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerListRoutes()
	s.registerSessionRoutes()
	s.setupRawRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.uploadLimiter.Stop()
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRawRoutes registers handlers that huma cannot describe: multipart
// uploads, the event stream and static image files.
func (s *Server) setupRawRoutes() {
	s.router.With(RateLimitMiddleware(s.uploadLimiter, s.logger)).
		Post("/api/v1/kinds/{kind}/session/image", s.handleUploadImage)

	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	if s.images != nil {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.images.Dir())))
		s.router.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", CacheImmutable)
			fs.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// controller returns the session controller for a kind.
func (s *Server) controller(kind string) (*session.Controller, error) {
	ctrl, ok := s.sessions[domain.Kind(kind)]
	if !ok {
		return nil, errors.NotFoundf("unknown kind %q", kind)
	}
	return ctrl, nil
}
