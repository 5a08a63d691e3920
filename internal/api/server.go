// Package api serves the compile and layout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz       liveness probe
//	GET  /version       build information
//	POST /v1/parse      diagram text → graph
//	POST /v1/layout     graph → positioned layout
//	POST /v1/compile    diagram text → positioned layout
//
// Every response carries an X-Request-ID header. Errors are JSON objects
// with a machine-readable code, see [ErrorResponse].
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	pkgerrors "github.com/matzehuels/stackflow/pkg/errors"
	"github.com/matzehuels/stackflow/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr           = "127.0.0.1:8080"
	DefaultRequestTimeout = 30 * time.Second
)

// Config configures a [Server]. It maps onto the [server] table of the
// configuration file.
type Config struct {
	Addr           string        `toml:"addr"`
	MaxSourceBytes int           `toml:"max_source_bytes"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxSourceBytes <= 0 {
		c.MaxSourceBytes = pkgerrors.DefaultMaxSourceBytes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// NewServer creates a server with all routes configured. A nil logger
// discards request logs.
func NewServer(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{cfg: cfg, runner: runner, logger: logger}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/parse", s.handleParse)
		r.Post("/layout", s.handleLayout)
		r.Post("/compile", s.handleCompile)
	})

	return r
}
