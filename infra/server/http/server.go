// Package http hosts the chi router shared by the REST and websocket
// handlers of one service process.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/carrec/platform/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Server owns the listener and the root router. Handlers mount their
// routes on Router() before the fx lifecycle starts it.
type Server struct {
	router   chi.Router
	srv      *http.Server
	shutdown time.Duration
	logger   *slog.Logger

	errCh chan error
}

func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	logger = logger.With("component", "http")

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Recover(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.HTTP.RateLimit > 0 {
		r.Use(httprate.Limit(cfg.HTTP.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByRealIP)))
	}
	r.Use(Metrics)

	shutdown := cfg.HTTP.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}

	return &Server{
		router: r,
		srv: &http.Server{
			Addr:              cfg.HTTP.Addr(),
			Handler:           r,
			ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
			// Only the header read is bounded; upgraded websocket
			// connections set their own deadlines.
			IdleTimeout: 2 * time.Minute,
			ErrorLog:    slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		shutdown: shutdown,
		logger:   logger,
	}
}

func (s *Server) Router() chi.Router { return s.router }

// Handler exposes the root handler for in-process tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start binds the listen address and serves in the background. Bind
// errors are returned synchronously.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	s.errCh = make(chan error, 1)
	go func() {
		defer close(s.errCh)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP_SERVE_FAILED", "err", err)
			s.errCh <- err
		}
	}()

	s.logger.Info("HTTP_LISTENING", "addr", ln.Addr().String())
	return nil
}

// Stop drains in-flight requests. Hijacked websocket connections are not
// tracked by net/http; the comment stream closes those.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdown)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if s.errCh != nil {
		if err, ok := <-s.errCh; ok {
			return err
		}
	}
	s.logger.Info("HTTP_STOPPED")
	return nil
}
