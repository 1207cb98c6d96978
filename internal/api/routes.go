package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/reelvault/reelvault/internal/api/handlers"
	apimw "github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/health"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/settings"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Warn().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Msg("request error")
				return nil
			}
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("requestId", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	catalogHandlers := catalog.NewHandlers(s.svc.Catalog)
	catalogHandlers.RegisterRoutes(api.Group("/videos"))
	catalogHandlers.RegisterSyncRoutes(api.Group("/catalog"))

	downloads := api.Group("/downloads")
	downloads.POST("", s.submitDownload)
	downloads.GET("/queue", s.getQueue)
	downloads.POST("/pause", s.pauseDownloads)
	downloads.POST("/resume", s.resumeDownloads)
	downloads.POST("/stop", s.stopDownloads)
	downloads.DELETE("/:id", s.cancelDownload)

	settings.NewHandlers(s.svc.Settings).RegisterRoutes(api.Group("/settings"))
	history.NewHandlers(s.svc.History).RegisterRoutes(api.Group("/history"))

	if s.svc.Progress != nil {
		api.GET("/activities", s.listActivities)
	}

	system := api.Group("/system")
	health.NewHandlers(s.svc.Health).RegisterRoutes(system)
	if s.svc.Logs != nil {
		NewLogsHandlers(s.svc.Logs).RegisterRoutes(system.Group("/logs"))
	}

	if s.svc.Scheduler != nil {
		handlers.NewSchedulerHandler(s.svc.Scheduler).RegisterRoutes(api.Group("/scheduler"))
	}
}
