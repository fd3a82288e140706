// Package http serves the operational endpoints: health and metrics.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type OpsServer struct {
	Echo *echo.Echo

	db  Pinger
	log *slog.Logger
}

// NewOpsServer wires /healthz against db and /metrics against reg.
func NewOpsServer(db Pinger, reg *prometheus.Registry, log *slog.Logger) *OpsServer {
	if log == nil {
		log = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &OpsServer{
		Echo: e,
		db:   db,
		log:  log.With(slog.String("component", "http.ops")),
	}

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	return s
}

func (s *OpsServer) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn("health check failed", slog.Any("err", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start serves on addr until Shutdown is called.
func (s *OpsServer) Start(addr string) error {
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
