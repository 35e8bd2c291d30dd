package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type healthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	now := h.now().UTC()
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Message: "database unavailable", Timestamp: now})
		}
	}
	return c.JSON(http.StatusOK, healthResponse{Success: true, Message: "API is running", Timestamp: now})
}
