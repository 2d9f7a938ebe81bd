// Package server exposes scraping and stored runs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/linkharvest/internal/config"
	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 30 * time.Second

// Runner executes one scrape request
type Runner interface {
	Run(ctx context.Context, req models.ScrapeRequest) (*models.ScrapeOutcome, error)
}

// RunReader reads stored runs back
type RunReader interface {
	Links(ctx context.Context, runID string) ([]string, error)
	Runs(ctx context.Context) ([]models.RunSummary, error)
}

// Server is the HTTP API
type Server struct {
	cfg    config.ServerConfig
	router *gin.Engine
	logger *slog.Logger
}

// New builds the router. runs may be nil, in which case the run
// endpoints answer 404.
func New(cfg config.ServerConfig, runner Runner, runs RunReader, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(ErrorHandler(logger))

	h := &handlers{runner: runner, runs: runs, logger: logger}

	router.GET("/health", h.health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scrape", h.scrape)

		r := v1.Group("/runs")
		{
			r.GET("", h.listRuns)
			r.GET("/:id/links", h.runLinks)
		}
	}

	return &Server{cfg: cfg, router: router, logger: logger}
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("API server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("server exited")
	return err
}
