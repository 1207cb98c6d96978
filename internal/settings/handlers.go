package settings

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for runtime settings.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new settings handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers settings routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Get)
	g.PUT("", h.Update)
}

// Get returns the current settings.
// GET /api/v1/settings
func (h *Handlers) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Get())
}

// Update changes one or more settings.
// PUT /api/v1/settings
func (h *Handlers) Update(c echo.Context) error {
	var input Update
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.Update(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
