package httpserver

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vango-go/vai-studio/pkg/core"
)

// logRequests logs each completed request.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		s.logger.Info("request completed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", req.Method,
			"path", req.URL.Path,
			"status", c.Response().Status,
			"bytes", c.Response().Size,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

// measureRequests records request counts and latency by route.
func (s *Server) measureRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordRequest(c.Request().Method, route, strconv.Itoa(c.Response().Status), time.Since(start))
		return nil
	}
}

// limitGeneration admits a request under the per-client limits and holds a
// concurrency slot until the handler returns.
func (s *Server) limitGeneration(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter == nil {
			return next(c)
		}
		d := s.limiter.Acquire(c.RealIP(), time.Now())
		if !d.Allowed {
			c.Response().Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
			return core.NewQuotaOrAuthError("Too many requests. Please wait and try again.", d.RetryAfter)
		}
		defer d.Permit.Release()
		return next(c)
	}
}
