// Package server exposes the catalog over an HTTP admin API and serves the
// generated site's static files for preview.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/logging"
	"github.com/blackwell-systems/stashctl/internal/operations"
)

// MaxUploadBytes bounds multipart request bodies.
const MaxUploadBytes = 64 << 20

// Server holds the HTTP server dependencies.
type Server struct {
	svc     *operations.Service
	router  chi.Router
	log     logrus.FieldLogger
	origins []string

	mu         sync.Mutex
	refreshing bool
	cron       *cron.Cron
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and refresh logger.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Server) { s.log = l } }

// WithAllowedOrigins sets the CORS origins. The default allows localhost.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a new API server for svc.
func New(svc *operations.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		router:  chi.NewRouter(),
		log:     logging.Discard(),
		origins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json", "text/html", "text/css", "application/javascript"))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/collections", s.handleGetCollections)
		r.Get("/categories", s.handleGetCategories)
		r.Get("/tags", s.handleGetTags)

		r.Get("/items", s.handleGetItems)
		r.Get("/items/{id}", s.handleGetItem)
		r.Post("/items", s.handleCreateItem)
		r.Put("/items/{id}", s.handleUpdateItem)
		r.Delete("/items/{id}", s.handleDeleteItem)

		r.Post("/parse-url", s.handleParseURL)
		r.Post("/fetch-content", s.handleFetchContent)
		r.Post("/batch-update", s.handleBatchUpdate)
	})

	site := siteFS{fs: s.svc.Layout().FS()}
	FileServer(s.router, "/assets", site.Sub("assets"))
	FileServer(s.router, "/docs", site)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// requestLogger logs each request through logrus once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).Round(time.Millisecond).String(),
				"request":  middleware.GetReqID(r.Context()),
			}).Debug("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully and stops the refresh schedule.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("admin API listening")

	select {
	case err := <-errc:
		s.StopSchedule()
		return err
	case <-ctx.Done():
	}

	s.StopSchedule()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
