//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/download"
	"github.com/reelvault/reelvault/internal/health"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/progress"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/settings"
	"github.com/reelvault/reelvault/internal/websocket"
)

// Services bundles the components exposed over HTTP. Scheduler and Logs
// may be nil; their routes are then not registered.
type Services struct {
	Downloads *download.Manager
	Catalog   *catalog.Service
	History   *history.Service
	Health    *health.Service
	Settings  *settings.Service
	Progress  *progress.Manager
	Scheduler *scheduler.Scheduler
	Logs      LogsProvider
}

// Server is the HTTP API server.
type Server struct {
	echo      *echo.Echo
	hub       *websocket.Hub
	svc       Services
	cfg       *config.Config
	logger    zerolog.Logger
	startedAt time.Time

	unsubscribe func()
}

// NewServer creates a new API server and subscribes the WebSocket hub to
// download events.
func NewServer(cfg *config.Config, hub *websocket.Hub, svc Services, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		hub:       hub,
		svc:       svc,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startedAt: time.Now(),
	}
	e.HTTPErrorHandler = s.handleError

	s.setupMiddleware()
	s.setupRoutes()
	s.unsubscribe = s.wireDownloadEvents()

	return s
}

// Start starts the HTTP server. It blocks until the server stops and
// returns nil after a graceful shutdown.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to write error response")
	}
}
