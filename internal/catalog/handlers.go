package catalog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/download"
)

// Handlers provides HTTP handlers for catalog operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new catalog handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers video routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/download", h.Download)
	g.DELETE("/:id/download", h.CancelDownload)
}

// RegisterSyncRoutes registers catalog sync routes on an Echo group.
func (h *Handlers) RegisterSyncRoutes(g *echo.Group) {
	g.POST("/sync", h.Sync)
}

// List returns all videos, optionally filtered by ?q=.
// GET /api/v1/videos
func (h *Handlers) List(c echo.Context) error {
	videos, err := h.service.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, videos)
}

// Stats returns the catalog size and per-status counts.
// GET /api/v1/videos/stats
func (h *Handlers) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	total, err := h.service.Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byStatus, err := h.service.StatusCounts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":    total,
		"byStatus": byStatus,
	})
}

// Get returns a single video.
// GET /api/v1/videos/:id
func (h *Handlers) Get(c echo.Context) error {
	v, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, v)
}

// Delete removes a video from the catalog.
// DELETE /api/v1/videos/:id
func (h *Handlers) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type downloadInput struct {
	Priority int `json:"priority"`
}

// Download queues a video for download.
// POST /api/v1/videos/:id/download
func (h *Handlers) Download(c echo.Context) error {
	var input downloadInput
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&input); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	position, err := h.service.DownloadVideo(c.Request().Context(), c.Param("id"), input.Priority)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"id":       c.Param("id"),
		"position": position,
	})
}

// CancelDownload cancels a queued or active download of a video.
// DELETE /api/v1/videos/:id/download
func (h *Handlers) CancelDownload(c echo.Context) error {
	cancelled, err := h.service.CancelDownload(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": cancelled})
}

type syncInput struct {
	Collection string `json:"collection"`
}

// Sync starts a background sync of a collection.
// POST /api/v1/catalog/sync
func (h *Handlers) Sync(c echo.Context) error {
	var input syncInput
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&input); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	collection := input.Collection
	if collection == "" {
		collection = h.service.DefaultCollection()
	}
	if err := h.service.SyncAsync(collection); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"collection": collection,
		"activityId": SyncActivityID(collection),
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrVideoNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, download.ErrDuplicateRequest), errors.Is(err, ErrSyncInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, download.ErrInvalidRequest), errors.Is(err, ErrNoVideoFile),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrEmptyCollection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDownloadsOffline):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
