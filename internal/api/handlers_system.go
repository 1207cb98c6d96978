package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports version, uptime, catalog counts and the scheduler state.
// GET /api/v1/status
func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	videoCount, err := s.svc.Catalog.Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	statusCounts, err := s.svc.Catalog.StatusCounts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	response := map[string]any{
		"version":       config.Version,
		"startTime":     s.startedAt.Format(time.RFC3339),
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"videoCount":    videoCount,
		"downloaded":    statusCounts[catalog.StatusCompleted],
		"collection":    s.svc.Catalog.DefaultCollection(),
		"downloads":     s.svc.Downloads.Snapshot(),
	}
	if s.hub != nil {
		response["clients"] = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, response)
}

// listActivities returns running and recently finished activities.
// GET /api/v1/activities
func (s *Server) listActivities(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Progress.List())
}
