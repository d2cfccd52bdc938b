package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	timeout time.Duration
}

func NewHealthHandler(store Pinger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{store: store, timeout: timeout}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"checks": map[string]string{"database": "unreachable"},
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
