package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadside-assist/internal/handler"
	"github.com/iliyamo/roadside-assist/internal/middleware"
	"github.com/iliyamo/roadside-assist/internal/model"
)

// RegisterRequests registers the service-request endpoints and the other
// routes any signed-in user may call.  Per-request visibility is decided in
// the service layer; only status changes are gated by role here.
func RegisterRequests(e *echo.Echo, r *handler.RequestHandler, w *handler.WorkshopHandler, n *handler.NotificationHandler, authn echo.MiddlewareFunc) {
	staff := middleware.RequireRole(model.RoleWorker, model.RoleAdmin)

	g := e.Group("/api/requests", authn)
	g.GET("", r.List)
	g.POST("", r.Create)
	g.GET("/:id", r.Get)
	g.GET("/:id/history", r.History)
	g.PATCH("/:id/status", r.UpdateStatus, staff)
	g.POST("/:id/review", r.Review)

	e.GET("/api/workers/me/workshop", w.Mine, authn, staff)

	ng := e.Group("/api/notifications", authn)
	ng.GET("", n.List)
	ng.POST("/:id/read", n.MarkRead)
}
