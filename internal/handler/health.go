package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Health is a liveness check for load balancers.  It never touches the
// database.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers /api/health by pinging the database.
type HealthHandler struct {
	base
	db Pinger
}

func NewHealthHandler(db Pinger, timeout time.Duration, log *zap.Logger) *HealthHandler {
	return &HealthHandler{base: newBase(timeout, log), db: db}
}

func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
