// Package admin exposes a read-only HTTP ops surface over the registry
// and metrics. It runs on its own port, separate from the chat
// listener, and never mutates server state.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"textchat/internal/metrics"
	"textchat/internal/registry"
)

type Server struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	echo    *echo.Echo
	log     *zap.Logger
}

func New(reg *registry.Registry, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("admin request",
				zap.String("method", v.Method), zap.String("uri", v.URI), zap.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{reg: reg, metrics: m, echo: e, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/rooms", s.handleRooms)
	s.echo.GET("/api/users", s.handleUsers)
	s.echo.GET("/api/metrics", s.handleMetrics)
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) {
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin server error", zap.Error(err))
		}
	}()
	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutCtx); err != nil {
		s.log.Error("admin shutdown", zap.Error(err))
	}
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Users         int     `json:"users"`
	Rooms         int     `json:"rooms"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(c echo.Context) error {
	users, rooms := s.reg.Counts()
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Users:         users,
		Rooms:         rooms,
		UptimeSeconds: s.metrics.GetUptime().Seconds(),
	})
}

func (s *Server) handleRooms(c echo.Context) error {
	rooms := s.reg.Rooms()
	if rooms == nil {
		rooms = []registry.RoomInfo{}
	}
	return c.JSON(http.StatusOK, rooms)
}

func (s *Server) handleUsers(c echo.Context) error {
	users := s.reg.Users()
	if users == nil {
		users = []registry.UserInfo{}
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.metrics.GetSummary())
}
