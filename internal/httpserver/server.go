// Package httpserver exposes the studio over HTTP with echo.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vango-go/vai-studio/internal/ratelimit"
	"github.com/vango-go/vai-studio/pkg/metrics"
	"github.com/vango-go/vai-studio/pkg/profile"
	vai "github.com/vango-go/vai-studio/sdk"
)

// Options are the collaborators of a Server. Profiles and Metrics are
// optional; their routes are only registered when set.
type Options struct {
	Client   *vai.Client
	Profiles profile.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// RateLimit applies per client IP to the generation routes.
	RateLimit ratelimit.Config
}

// Server is the HTTP API.
type Server struct {
	echo     *echo.Echo
	client   *vai.Client
	profiles profile.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	limiter  *ratelimit.Limiter

	draining atomic.Bool
}

// New creates a configured server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		client:   opts.Client,
		profiles: opts.Profiles,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if opts.RateLimit.Enabled() {
		s.limiter = ratelimit.New(opts.RateLimit)
	}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(s.logRequests)
	if s.metrics != nil {
		e.Use(s.measureRequests)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/v1")
	v1.POST("/search", s.handleSearch, s.limitGeneration)
	v1.GET("/search/history", s.handleSearchHistory)
	v1.DELETE("/search/history", s.handleClearSearchHistory)
	v1.POST("/images", s.handleImage, s.limitGeneration)
	v1.GET("/images/last", s.handleLastImage)
	v1.POST("/videos", s.handleVideo, s.limitGeneration)

	if s.profiles != nil {
		v1.GET("/profiles/:id", s.handleGetProfile)
		v1.PUT("/profiles/:id/tier", s.handleSetTier)
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("server starting", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. Health checks report draining
// while in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	s.draining.Store(true)
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.draining.Load() {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "draining"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}
