// Package api runs the local HTTP API in front of the poster service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/config"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/handler"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	idleTimeout     = 120 * time.Second
)

// Deps are what the routes serve.
type Deps struct {
	Poster   handler.Poster
	Defaults handler.PostDefaults
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
	Version  string
}

// Server is the local API with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logger.Logger
}

// NewServer builds the router and http.Server. It does not listen.
func NewServer(cfg config.ServerConfig, log logger.Logger, deps Deps) *Server {
	log = logger.OrNop(log)

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Recovery first, then the request ID so the access log carries it.
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID(log))
	router.Use(middleware.Logger(log))

	setupRoutes(router, deps)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              cfg.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       idleTimeout,
		},
		log: log,
	}
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("Starting HTTP server",
		logger.String("address", ln.Addr().String()),
		logger.Duration("read_timeout", s.server.ReadTimeout),
		logger.Duration("write_timeout", s.server.WriteTimeout),
	)

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, up to
// a fixed timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server", logger.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

// Run listens on the configured address and serves until SIGINT, SIGTERM
// or ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.RunListener(ctx, ln)
}

// RunListener is Run on an existing listener.
func (s *Server) RunListener(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		s.log.Info("Shutdown requested")
	}

	// ctx may already be canceled; shutdown needs its own deadline.
	//nolint:contextcheck // fresh context for shutdown
	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
