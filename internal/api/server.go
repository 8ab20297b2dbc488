package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seantiz/edgemgmt/internal/engine"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Options tunes the simulator surface.
type Options struct {
	// CORSOrigins lists allowed origins. Empty means "*".
	CORSOrigins []string
	// Faults is the number of leading management requests answered with 503.
	Faults int
}

// Server wraps the chi router and application dependencies.
type Server struct {
	router *chi.Mux
	engine *engine.Engine
	logger *slog.Logger
	addr   string

	// faults counts down the injected 503 responses still owed.
	faults atomic.Int64
}

// NewServer creates and configures a new HTTP server.
func NewServer(addr string, eng *engine.Engine, logger *slog.Logger, opts Options) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		engine: eng,
		logger: logger,
		addr:   addr,
	}
	srv.faults.Store(int64(opts.Faults))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", metricsHandler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.faultMiddleware)
		r.Use(s.versionMiddleware)

		r.Route("/identities", func(r chi.Router) {
			r.Post("/", s.handleCreateIdentity)
			r.Get("/", s.handleListIdentities)
			r.Put("/{name}", s.handleUpdateIdentity)
			r.Delete("/{name}", s.handleDeleteIdentity)
		})

		r.Route("/modules", func(r chi.Router) {
			r.Post("/", s.handleCreateModule)
			r.Get("/", s.handleListModules)
			r.Get("/{name}", s.handleGetModule)
			r.Put("/{name}", s.handleUpdateModule)
			r.Delete("/{name}", s.handleDeleteModule)
			r.Post("/{name}/start", s.handleStartModule)
			r.Post("/{name}/stop", s.handleStopModule)
			r.Post("/{name}/restart", s.handleRestartModule)
			r.Post("/{name}/prepare-update", s.handlePrepareUpdate)
		})

		r.Get("/systeminfo", s.handleSystemInfo)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
