package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadside-assist/internal/handler"
	"github.com/iliyamo/roadside-assist/internal/middleware"
	"github.com/iliyamo/roadside-assist/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /api/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, r *handler.RequestHandler, n *handler.NotificationHandler, authn echo.MiddlewareFunc) {
	g := e.Group(
		"/api/admin",
		authn,
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/stats", a.Stats)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id", a.UpdateUser)
	g.DELETE("/users/:id", a.DeleteUser)

	// ---- Workshops ----
	g.POST("/workshops", a.CreateWorkshop)
	g.PATCH("/workshops/:id", a.UpdateWorkshop)
	g.DELETE("/workshops/:id", a.DeleteWorkshop)

	// ---- Workers ----
	g.GET("/workshops/:id/workers", a.ListWorkers)
	g.POST("/workshops/:id/workers", a.AssignWorker)
	g.DELETE("/assignments/:id", a.EndAssignment)

	g.PATCH("/requests/:id/assign", r.Assign)
	g.POST("/notifications", n.Send)
}
