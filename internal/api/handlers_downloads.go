package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/download"
)

// submitDownload queues an arbitrary request that is not tied to a catalog
// video.
// POST /api/v1/downloads
func (s *Server) submitDownload(c echo.Context) error {
	var req download.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	position, err := s.svc.Downloads.Submit(req)
	if err != nil {
		switch {
		case errors.Is(err, download.ErrDuplicateRequest):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, download.ErrInvalidRequest):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"id":       req.ID,
		"position": position,
	})
}

// cancelDownload cancels a queued or active download by request id.
// DELETE /api/v1/downloads/:id
func (s *Server) cancelDownload(c echo.Context) error {
	cancelled := s.svc.Downloads.Cancel(c.Param("id"))
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// getQueue returns a snapshot of the scheduler.
// GET /api/v1/downloads/queue
func (s *Server) getQueue(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Downloads.Snapshot())
}

// POST /api/v1/downloads/pause
func (s *Server) pauseDownloads(c echo.Context) error {
	s.svc.Downloads.Pause()
	return c.JSON(http.StatusOK, s.svc.Downloads.Snapshot())
}

// POST /api/v1/downloads/resume
func (s *Server) resumeDownloads(c echo.Context) error {
	s.svc.Downloads.Resume()
	return c.JSON(http.StatusOK, s.svc.Downloads.Snapshot())
}

// stopDownloads pauses the queue and cancels every active download.
// POST /api/v1/downloads/stop
func (s *Server) stopDownloads(c echo.Context) error {
	s.svc.Downloads.Stop()
	return c.JSON(http.StatusOK, s.svc.Downloads.Snapshot())
}
