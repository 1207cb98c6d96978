package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	service *Service
}

// NewHandlers creates new health handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers health routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.GetHealth)
}

// GetHealth runs the health checks and returns the report. The status code
// is 503 when any check fails.
// GET /api/v1/system/health
func (h *Handlers) GetHealth(c echo.Context) error {
	report := h.service.Check(c.Request().Context())

	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
