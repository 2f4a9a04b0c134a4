// Package httpapi exposes the question-answering session over HTTP.
package httpapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var httpLog = logger.Named("http")

// Default limits.
const (
	DefaultMaxUploadBytes = 32 << 20
	shutdownTimeout       = 10 * time.Second
)

// Metrics records request metrics and serves the scrape endpoint.
type Metrics interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
	Handler() http.Handler
}

// Server is the HTTP API server.
type Server struct {
	router         chi.Router
	session        driving.SessionService
	metrics        Metrics
	validate       *validator.Validate
	origins        []string
	maxUploadBytes int64
	mounts         map[string]http.Handler
	readPart       func(*multipart.FileHeader) ([]byte, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and mounts /metrics.
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithAllowedOrigins sets the CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxUploadBytes caps the size of a document upload request.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMount serves h under pattern next to the /v1 API.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		if s.mounts == nil {
			s.mounts = make(map[string]http.Handler)
		}
		s.mounts[pattern] = h
	}
}

// NewServer creates the server and its routes.
func NewServer(session driving.SessionService, opts ...Option) *Server {
	s := &Server{
		session:        session,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		origins:        []string{"*"},
		maxUploadBytes: DefaultMaxUploadBytes,
		readPart:       readUpload,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	if s.metrics != nil {
		r.Use(observe(s.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders: []string{"X-Request-ID", "Mcp-Session-Id"},
		MaxAge:         300,
	}))

	for pattern, h := range s.mounts {
		r.Mount(pattern, h)
	}
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Post("/ask", s.handleAsk)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleReset)
		r.Delete("/index", s.handleClearIndex)
		r.Get("/status", s.handleStatus)
	})

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		httpLog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
